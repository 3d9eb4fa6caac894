package entity

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// BookingStatus is the booking sub-flow status. The empty value is null.
type BookingStatus string

const (
	BookingStatusNone      BookingStatus = ""
	BookingStatusInitiated BookingStatus = "initiated"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) IsNull() bool {
	return s == BookingStatusNone
}

func (s BookingStatus) MarshalJSON() ([]byte, error) {
	if s.IsNull() {
		return jsonNull, nil
	}
	return json.Marshal(string(s))
}

func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*s = BookingStatusNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = BookingStatus(raw)
	return nil
}

// BookingStep is the backend-directed step inside the booking sub-flow. The
// empty value is null.
type BookingStep string

const (
	BookingStepNone         BookingStep = ""
	BookingStepAskEmail     BookingStep = "ASK_EMAIL"
	BookingStepAskOwnerName BookingStep = "ASK_OWNER_NAME"
	BookingStepAskPetName   BookingStep = "ASK_PET_NAME"
	BookingStepAskPhone     BookingStep = "ASK_PHONE"
	BookingStepAskDate      BookingStep = "ASK_DATE"
	BookingStepShowSlots    BookingStep = "SHOW_SLOTS"
	BookingStepConfirmSlot  BookingStep = "CONFIRM_SLOT"
)

func (s BookingStep) IsNull() bool {
	return s == BookingStepNone
}

func (s BookingStep) MarshalJSON() ([]byte, error) {
	if s.IsNull() {
		return jsonNull, nil
	}
	return json.Marshal(string(s))
}

func (s *BookingStep) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*s = BookingStepNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = BookingStep(raw)
	return nil
}

// TimeSlot is a bookable appointment offered by the backend. StartTime and
// EndTime are ISO 8601 strings and are never rewritten by the client.
type TimeSlot struct {
	Id        string `json:"id"`
	Date      string `json:"date,omitempty"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// BookingState is the persisted booking sub-flow. AvailableSlots is nil when
// no slots are on offer. LastActivityTime is unix milliseconds.
type BookingState struct {
	BookingStatus    BookingStatus `json:"bookingStatus"`
	BookingStep      BookingStep   `json:"bookingStep"`
	AvailableSlots   []TimeSlot    `json:"availableSlots"`
	LastActivityTime int64         `json:"lastActivityTime"`
}

func (b BookingState) Active() bool {
	return !b.BookingStatus.IsNull()
}

// Clone returns a copy that shares nothing with b.
func (b BookingState) Clone() BookingState {
	if b.AvailableSlots != nil {
		slots := make([]TimeSlot, len(b.AvailableSlots))
		copy(slots, b.AvailableSlots)
		b.AvailableSlots = slots
	}
	return b
}

// BookingPatch carries the booking fields present in a backend response. A
// nil field was absent and leaves the current value alone; a non-nil field
// pointing at the empty value sets null.
type BookingPatch struct {
	Status         *BookingStatus
	Step           *BookingStep
	AvailableSlots *[]TimeSlot
}

func (p BookingPatch) IsEmpty() bool {
	return p.Status == nil && p.Step == nil && p.AvailableSlots == nil
}

func (p BookingPatch) WithStatus(s BookingStatus) BookingPatch {
	p.Status = &s
	return p
}

func (p BookingPatch) WithStep(s BookingStep) BookingPatch {
	p.Step = &s
	return p
}

func (p BookingPatch) WithSlots(slots []TimeSlot) BookingPatch {
	p.AvailableSlots = &slots
	return p
}
