package service

import (
	"chatbot-widget/internal/entity"
)

// Snapshot is a consistent, immutable copy of the widget state handed to
// renderers. Revision grows by one per published change so a renderer can
// drop snapshots that arrive out of order.
type Snapshot struct {
	Revision  uint64
	State     entity.ChatState
	SessionId string
	Messages  []entity.Message
	Loading   bool
	Booking   entity.BookingState
	BotName   string
	Position  entity.Position
	InputHint string
}

// SlotGroups groups the offered slots for display.
func (s Snapshot) SlotGroups() []SlotGroup {
	if s.Booking.BookingStep != entity.BookingStepShowSlots {
		return nil
	}
	return GroupSlotsByDate(s.Booking.AvailableSlots)
}

// SnapshotPublisher receives every snapshot the conversation publishes.
type SnapshotPublisher interface {
	PublishSnapshot(snap Snapshot)
}
