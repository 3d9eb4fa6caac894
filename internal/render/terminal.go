// Package render draws widget snapshots as a chat transcript on a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/service"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	userColor   = color.New(color.FgGreen)
	botColor    = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
	hintColor   = color.New(color.Faint)
	slotColor   = color.New(color.FgMagenta)
)

// Terminal prints only what changed since the previous snapshot. Stale
// snapshots are ignored.
type Terminal struct {
	out io.Writer
	loc *time.Location

	mu        sync.Mutex
	revision  uint64
	state     entity.ChatState
	printed   int
	loading   bool
	slotsSeen string
	hint      string
}

func NewTerminal(out io.Writer, loc *time.Location) *Terminal {
	return &Terminal{
		out:   out,
		loc:   loc,
		state: entity.ChatStateClosed,
	}
}

func (t *Terminal) Render(snap service.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap.Revision != 0 && snap.Revision <= t.revision {
		return
	}
	t.revision = snap.Revision

	if snap.State != t.state {
		t.renderState(snap)
		t.state = snap.State
	}

	if len(snap.Messages) < t.printed {
		t.printed = 0
		t.slotsSeen = ""
	}
	for _, m := range snap.Messages[t.printed:] {
		t.renderMessage(snap.BotName, m)
	}
	t.printed = len(snap.Messages)

	if snap.State == entity.ChatStateMinimized {
		return
	}

	if snap.Loading && !t.loading {
		hintColor.Fprintf(t.out, "  %s is typing...\n", snap.BotName)
	}
	t.loading = snap.Loading

	t.renderSlots(snap)

	if snap.State == entity.ChatStateOpen && snap.InputHint != t.hint {
		hintColor.Fprintf(t.out, "  (%s)\n", snap.InputHint)
		t.hint = snap.InputHint
	}
}

func (t *Terminal) renderState(snap service.Snapshot) {
	switch snap.State {
	case entity.ChatStateOpen:
		headerColor.Fprintf(t.out, "== %s [%s] ==\n", snap.BotName, snap.Position)
		t.hint = ""
	case entity.ChatStateMinimized:
		hintColor.Fprintf(t.out, "[%s minimized]\n", snap.BotName)
	case entity.ChatStateClosed:
		headerColor.Fprintf(t.out, "== chat closed ==\n")
	}
}

func (t *Terminal) renderMessage(botName string, m entity.Message) {
	at := time.UnixMilli(m.Timestamp).In(t.loc).Format("15:04")
	if m.Sender == entity.SenderUser {
		userColor.Fprintf(t.out, "[%s] you: %s\n", at, m.Text)
		return
	}
	c := botColor
	if isErrorText(m.Text) {
		c = errorColor
	}
	c.Fprintf(t.out, "[%s] %s: %s\n", at, botName, m.Text)
}

func (t *Terminal) renderSlots(snap service.Snapshot) {
	groups := snap.SlotGroups()
	if len(groups) == 0 {
		t.slotsSeen = ""
		return
	}
	key := fmt.Sprintf("%d:%v", t.printed, snap.Booking.AvailableSlots)
	if key == t.slotsSeen {
		return
	}
	t.slotsSeen = key

	for _, g := range groups {
		slotColor.Fprintf(t.out, "  %s\n", service.FormatDateHeading(g.Date))
		for _, s := range g.Slots {
			slotColor.Fprintf(t.out, "    %d) %s  [/slot %d]\n", s.Index, service.FormatSlotRange(s.Slot, t.loc), s.Index)
		}
	}
}

func isErrorText(text string) bool {
	return strings.HasPrefix(text, constant.ErrorMessagePrefix) || text == constant.SendFailedMessage
}
