package service

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
)

const dateLayout = "2006-01-02"

// IndexedSlot is a slot together with its 1-based position in the list the
// backend sent. The backend resolves slot choices by that position.
type IndexedSlot struct {
	Index int
	Slot  entity.TimeSlot
}

type SlotGroup struct {
	Date  string
	Slots []IndexedSlot
}

// GroupSlotsByDate groups slots by calendar date, ascending. Slots keep the
// backend's order inside a group.
func GroupSlotsByDate(slots []entity.TimeSlot) []SlotGroup {
	byDate := make(map[string]*SlotGroup)
	var groups []*SlotGroup
	for i, slot := range slots {
		key := slotDateKey(slot)
		g, ok := byDate[key]
		if !ok {
			g = &SlotGroup{Date: key}
			byDate[key] = g
			groups = append(groups, g)
		}
		g.Slots = append(g.Slots, IndexedSlot{Index: i + 1, Slot: slot})
	}

	slices.SortStableFunc(groups, func(a, b *SlotGroup) int {
		return cmp.Compare(a.Date, b.Date)
	})

	out := make([]SlotGroup, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}

func slotDateKey(slot entity.TimeSlot) string {
	if slot.Date != "" {
		return slot.Date
	}
	if start, err := time.Parse(time.RFC3339, slot.StartTime); err == nil {
		return start.UTC().Format(dateLayout)
	}
	before, _, _ := strings.Cut(slot.StartTime, "T")
	return before
}

// SlotChoice maps a slot id to the user message that selects it: its
// 1-based position in slots.
func SlotChoice(slots []entity.TimeSlot, slotId string) (string, bool) {
	for i, slot := range slots {
		if slot.Id == slotId {
			return strconv.Itoa(i + 1), true
		}
	}
	return "", false
}

func DateChoice(t time.Time) string {
	return t.Format(dateLayout)
}

// MinBookableDate is midnight of the day after now, in now's location.
func MinBookableDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

func ConfirmChoice(yes bool) string {
	if yes {
		return "yes"
	}
	return "no"
}

func InputHint(step entity.BookingStep) string {
	switch step {
	case entity.BookingStepAskDate:
		return constant.HintAskDate
	case entity.BookingStepShowSlots:
		return constant.HintShowSlots
	case entity.BookingStepConfirmSlot:
		return constant.HintConfirmSlot
	case entity.BookingStepAskEmail:
		return constant.HintAskEmail
	case entity.BookingStepAskPhone:
		return constant.HintAskPhone
	default:
		return constant.HintDefault
	}
}

// FormatSlotRange renders "09:00 - 09:30" in loc, falling back to the raw
// strings when the backend sent something unparseable.
func FormatSlotRange(slot entity.TimeSlot, loc *time.Location) string {
	start, errStart := time.Parse(time.RFC3339, slot.StartTime)
	end, errEnd := time.Parse(time.RFC3339, slot.EndTime)
	if errStart != nil || errEnd != nil {
		return fmt.Sprintf("%s - %s", slot.StartTime, slot.EndTime)
	}
	return fmt.Sprintf("%s - %s", start.In(loc).Format("15:04"), end.In(loc).Format("15:04"))
}

// FormatDateHeading renders a group key as "Monday, March 2, 2025".
func FormatDateHeading(key string) string {
	d, err := time.Parse(dateLayout, key)
	if err != nil {
		return key
	}
	return d.Format("Monday, January 2, 2006")
}
