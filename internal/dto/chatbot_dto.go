package dto

import (
	"encoding/json"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
)

type ChatRequest struct {
	SessionId   string `json:"sessionId" validate:"required"`
	UserMessage string `json:"userMessage" validate:"required"`
}

// ChatResponse is one backend turn. The booking fields are pointers so a
// field that is present but null can be told apart from an absent one.
type ChatResponse struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message,omitempty"`
	BookingStatus  *entity.BookingStatus `json:"bookingStatus,omitempty"`
	BookingStep    *entity.BookingStep   `json:"bookingStep,omitempty"`
	AvailableSlots *[]entity.TimeSlot    `json:"availableSlots,omitempty"`
	Error          string                `json:"error,omitempty"`
	Details        string                `json:"details,omitempty"`
}

type chatResponseAlias ChatResponse

func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	var alias chatResponseAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["bookingStatus"]; ok && alias.BookingStatus == nil {
		alias.BookingStatus = new(entity.BookingStatus)
	}
	if _, ok := keys["bookingStep"]; ok && alias.BookingStep == nil {
		alias.BookingStep = new(entity.BookingStep)
	}
	if _, ok := keys["availableSlots"]; ok && alias.AvailableSlots == nil {
		alias.AvailableSlots = new([]entity.TimeSlot)
	}

	*r = ChatResponse(alias)
	return nil
}

// BookingPatch extracts the booking fields the response carried.
func (r *ChatResponse) BookingPatch() entity.BookingPatch {
	return entity.BookingPatch{
		Status:         r.BookingStatus,
		Step:           r.BookingStep,
		AvailableSlots: r.AvailableSlots,
	}
}

// ErrorText is the human readable failure reason of a success:false turn.
func (r *ChatResponse) ErrorText() string {
	if r.Details != "" {
		return r.Details
	}
	if r.Error != "" {
		return r.Error
	}
	return constant.DefaultBackendErrorText
}

type CloseSessionRequest struct {
	SessionId string `json:"sessionId" validate:"required"`
}

type CloseSessionResponse struct {
	Success bool `json:"success"`
}
