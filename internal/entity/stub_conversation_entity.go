package entity

import "time"

// StubConversation is the stub gateway's record of one scripted booking
// dialogue.
type StubConversation struct {
	SessionId string
	Status    BookingStatus
	Step      BookingStep
	Email     string
	OwnerName string
	PetName   string
	Phone     string
	Date      string
	Slots     []TimeSlot
	Chosen    *TimeSlot
	UpdatedAt time.Time
}
