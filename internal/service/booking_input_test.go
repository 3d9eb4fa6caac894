package service

import (
	"testing"
	"time"

	"chatbot-widget/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSlotsByDateKeepsOriginalIndex(t *testing.T) {
	groups := GroupSlotsByDate(threeSlots)

	require.Len(t, groups, 2)
	assert.Equal(t, "2025-03-02", groups[0].Date)
	assert.Equal(t, []IndexedSlot{{Index: 2, Slot: threeSlots[1]}}, groups[0].Slots)
	assert.Equal(t, "2025-03-03", groups[1].Date)
	assert.Equal(t, []IndexedSlot{
		{Index: 1, Slot: threeSlots[0]},
		{Index: 3, Slot: threeSlots[2]},
	}, groups[1].Slots)
}

func TestGroupSlotsByDateKeys(t *testing.T) {
	slots := []entity.TimeSlot{
		// explicit date wins over the start time
		{Id: "a", Date: "2025-03-05", StartTime: "2025-03-04T23:30:00Z"},
		// offsets are normalized to UTC
		{Id: "b", StartTime: "2025-03-05T01:00:00+03:00"},
		{Id: "c", StartTime: "2025-03-06 garbage"},
		{Id: "d", StartTime: "2025-03-07Tlate"},
	}

	groups := GroupSlotsByDate(slots)

	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Date)
	}
	assert.Equal(t, []string{"2025-03-04", "2025-03-05", "2025-03-06 garbage", "2025-03-07"}, keys)
}

func TestGroupSlotsByDateEmpty(t *testing.T) {
	assert.Empty(t, GroupSlotsByDate(nil))
}

func TestSlotChoiceUsesUngroupedPosition(t *testing.T) {
	choice, ok := SlotChoice(threeSlots, "B")
	require.True(t, ok)
	assert.Equal(t, "2", choice)

	_, ok = SlotChoice(threeSlots, "Z")
	assert.False(t, ok)
}

func TestMinBookableDateIsTomorrow(t *testing.T) {
	now := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), MinBookableDate(now))
}

func TestChoices(t *testing.T) {
	assert.Equal(t, "2025-03-02", DateChoice(time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "yes", ConfirmChoice(true))
	assert.Equal(t, "no", ConfirmChoice(false))
}

func TestInputHint(t *testing.T) {
	tests := []struct {
		step entity.BookingStep
		want string
	}{
		{entity.BookingStepAskDate, "Or type the date in YYYY-MM-DD format (e.g., 2024-12-25)"},
		{entity.BookingStepShowSlots, "Or type the slot number (1, 2, 3, etc.)"},
		{entity.BookingStepConfirmSlot, `Or type "yes" or "no"`},
		{entity.BookingStepAskEmail, "Enter your email address"},
		{entity.BookingStepAskPhone, "Enter your phone number"},
		{entity.BookingStepAskOwnerName, "Press Enter to send, Shift+Enter for newline"},
		{entity.BookingStepNone, "Press Enter to send, Shift+Enter for newline"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InputHint(tt.step), string(tt.step))
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "09:00 - 09:30", FormatSlotRange(threeSlots[0], time.UTC))
	assert.Equal(t, "x - y", FormatSlotRange(entity.TimeSlot{StartTime: "x", EndTime: "y"}, time.UTC))
	assert.Equal(t, "Sunday, March 2, 2025", FormatDateHeading("2025-03-02"))
	assert.Equal(t, "someday", FormatDateHeading("someday"))
}
