// Package stub is a scripted stand-in for the conversational backend. It
// walks a visitor through the vet booking dialogue so the widget can be
// developed and tested end to end without the real engine.
package stub

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatbot-widget/internal/dto"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/pkg/mailer"
	"chatbot-widget/internal/pkg/serverutils"
	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/pkg/clock"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	replyGreeting     = "Hi! How can I help you today?"
	replyFallback     = `I can help you book a vet appointment. Just say "book an appointment".`
	replyStart        = "I'd be happy to help you book an appointment! What's your email address?"
	replyBadEmail     = "That doesn't look like an email address. Please enter a valid email."
	replyAskOwner     = "Thanks! What's your name?"
	replyAskPet       = "Nice to meet you, %s! What's your pet's name?"
	replyAskPhone     = "What's the best phone number to reach you?"
	replyBadPhone     = "Please enter a valid phone number."
	replyAskDate      = "Which date would you like to come in? (YYYY-MM-DD)"
	replyBadDate      = "Please enter a date from tomorrow onwards in YYYY-MM-DD format."
	replyShowSlots    = "Here are the available times on %s. Reply with the slot number."
	replyBadSlot      = "Please reply with a slot number between 1 and %d."
	replyConfirm      = "You picked %s at %s. Shall I book it? (yes/no)"
	replyRepick       = "No problem. Pick another slot."
	replyBadConfirm   = `Please answer "yes" or "no".`
	replyBooked       = "Your appointment for %s is booked on %s at %s. We sent a confirmation to %s."
	replyCancelled    = "Booking cancelled. Let me know if you need anything else."
	replyExpired      = `Your booking session expired. Say "book" to start again.`
	rateLimitedDetail = "Too many requests. Please wait a moment and try again."
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,}[0-9]$`)

type Config struct {
	SlotMinutes int
	SlotsPerDay int
	// RateLimit is the number of turns a session may send per minute.
	RateLimit int
	// Mailer sends booking confirmations. Optional.
	Mailer mailer.IEmailService
}

func (c Config) withDefaults() Config {
	if c.SlotMinutes <= 0 {
		c.SlotMinutes = 30
	}
	if c.SlotsPerDay <= 0 {
		c.SlotsPerDay = 6
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 20
	}
	return c
}

// Result is a reply together with the HTTP status to send it with.
type Result struct {
	Status   int
	Response dto.ChatResponse
}

type Engine struct {
	repo   contract.ConversationRepository
	clock  clock.Clock
	logger logger.ILogger
	cfg    Config

	mu      sync.Mutex
	expired *cache.Cache
	turns   *cache.Cache
}

func NewEngine(repo contract.ConversationRepository, clk clock.Clock, log logger.ILogger, cfg Config) *Engine {
	e := &Engine{
		repo:    repo,
		clock:   clk,
		logger:  log,
		cfg:     cfg.withDefaults(),
		expired: cache.New(24*time.Hour, time.Hour),
		turns:   cache.New(time.Minute, time.Minute),
	}
	// A dialogue that disappears mid-booking without a close has expired.
	repo.OnEvicted(func(c *entity.StubConversation) {
		if !c.Status.IsNull() && c.Status != entity.BookingStatusCompleted {
			e.expired.Set(c.SessionId, true, cache.DefaultExpiration)
		}
	})
	return e
}

func (e *Engine) Handle(req dto.ChatRequest) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rateLimited(req.SessionId) {
		e.logger.Warn("StubEngine", "Rate limit exceeded", map[string]interface{}{"session_id": req.SessionId})
		return Result{
			Status:   http.StatusTooManyRequests,
			Response: serverutils.FailureResponse("rate_limited", rateLimitedDetail),
		}
	}

	text := strings.TrimSpace(req.UserMessage)
	conv, ok := e.repo.Get(req.SessionId)
	if !ok {
		conv = &entity.StubConversation{SessionId: req.SessionId}
		if _, wasExpired := e.expired.Get(req.SessionId); wasExpired {
			e.expired.Delete(req.SessionId)
			if !isBookIntent(text) {
				e.save(conv)
				return e.reply(conv, replyExpired)
			}
		}
	}

	before := conv.Step
	res := e.advance(conv, text)
	if conv.Step != before {
		e.logger.Info("StubEngine", "Dialogue advanced", map[string]interface{}{
			"session_id": conv.SessionId,
			"from":       string(before),
			"to":         string(conv.Step),
			"status":     string(conv.Status),
		})
	}
	e.save(conv)
	return res
}

// Close forgets a session. It never fails.
func (e *Engine) Close(sessionId string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repo.Delete(sessionId)
	e.expired.Delete(sessionId)
	e.turns.Delete(sessionId)
	e.logger.Info("StubEngine", "Session closed", map[string]interface{}{"session_id": sessionId})
}

func (e *Engine) rateLimited(sessionId string) bool {
	_ = e.turns.Add(sessionId, 0, cache.DefaultExpiration)
	n, err := e.turns.IncrementInt(sessionId, 1)
	if err != nil {
		return false
	}
	return n > e.cfg.RateLimit
}

func (e *Engine) save(conv *entity.StubConversation) {
	conv.UpdatedAt = e.clock.Now()
	e.repo.Save(conv)
}

func (e *Engine) advance(conv *entity.StubConversation, text string) Result {
	lower := strings.ToLower(text)
	active := !conv.Status.IsNull() && conv.Status != entity.BookingStatusCompleted

	if active && lower == "cancel" {
		e.resetDialogue(conv)
		return e.reply(conv, replyCancelled)
	}
	if !active {
		e.resetDialogue(conv)
		switch {
		case isBookIntent(text):
			conv.Status = entity.BookingStatusInitiated
			conv.Step = entity.BookingStepAskEmail
			return e.reply(conv, replyStart)
		case isGreeting(lower):
			return e.reply(conv, replyGreeting)
		default:
			return e.reply(conv, replyFallback)
		}
	}

	switch conv.Step {
	case entity.BookingStepAskEmail:
		if !serverutils.ValidateVar(text, "required,email") {
			return e.reply(conv, replyBadEmail)
		}
		conv.Email = text
		conv.Step = entity.BookingStepAskOwnerName
		return e.reply(conv, replyAskOwner)

	case entity.BookingStepAskOwnerName:
		conv.OwnerName = text
		conv.Step = entity.BookingStepAskPetName
		return e.reply(conv, fmt.Sprintf(replyAskPet, text))

	case entity.BookingStepAskPetName:
		conv.PetName = text
		conv.Step = entity.BookingStepAskPhone
		return e.reply(conv, replyAskPhone)

	case entity.BookingStepAskPhone:
		if !phonePattern.MatchString(text) {
			return e.reply(conv, replyBadPhone)
		}
		conv.Phone = text
		conv.Status = entity.BookingStatusPending
		conv.Step = entity.BookingStepAskDate
		return e.reply(conv, replyAskDate)

	case entity.BookingStepAskDate:
		day, ok := e.parseBookableDate(text)
		if !ok {
			return e.reply(conv, replyBadDate)
		}
		conv.Date = day.Format("2006-01-02")
		conv.Slots = e.slotsFor(day)
		conv.Step = entity.BookingStepShowSlots
		return e.reply(conv, fmt.Sprintf(replyShowSlots, conv.Date))

	case entity.BookingStepShowSlots:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > len(conv.Slots) {
			return e.reply(conv, fmt.Sprintf(replyBadSlot, len(conv.Slots)))
		}
		chosen := conv.Slots[n-1]
		conv.Chosen = &chosen
		conv.Step = entity.BookingStepConfirmSlot
		return e.reply(conv, fmt.Sprintf(replyConfirm, conv.Date, slotClock(chosen)))

	case entity.BookingStepConfirmSlot:
		switch lower {
		case "yes", "y":
			msg := fmt.Sprintf(replyBooked, conv.PetName, conv.Date, slotClock(*conv.Chosen), conv.Email)
			e.sendConfirmation(conv)
			conv.Status = entity.BookingStatusCompleted
			conv.Step = entity.BookingStepNone
			conv.Slots = nil
			return e.reply(conv, msg)
		case "no", "n":
			conv.Chosen = nil
			conv.Step = entity.BookingStepShowSlots
			return e.reply(conv, replyRepick)
		default:
			return e.reply(conv, replyBadConfirm)
		}
	}

	e.resetDialogue(conv)
	return e.reply(conv, replyFallback)
}

func (e *Engine) sendConfirmation(conv *entity.StubConversation) {
	if e.cfg.Mailer == nil {
		return
	}
	c := mailer.BookingConfirmation{
		To:        conv.Email,
		OwnerName: conv.OwnerName,
		PetName:   conv.PetName,
		Date:      conv.Date,
		Time:      slotClock(*conv.Chosen),
	}
	sessionId := conv.SessionId
	go func() {
		if err := e.cfg.Mailer.SendBookingConfirmation(c); err != nil {
			e.logger.Error("StubEngine", "Failed to send booking confirmation", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
			return
		}
		e.logger.Info("StubEngine", "Booking confirmation sent", map[string]interface{}{"session_id": sessionId})
	}()
}

// reply answers with the dialogue's current booking fields.
func (e *Engine) reply(conv *entity.StubConversation, message string) Result {
	status := conv.Status
	step := conv.Step
	resp := dto.ChatResponse{
		Success:       true,
		Message:       message,
		BookingStatus: &status,
		BookingStep:   &step,
	}
	var slots []entity.TimeSlot
	if step == entity.BookingStepShowSlots || step == entity.BookingStepConfirmSlot {
		slots = append(slots, conv.Slots...)
	}
	resp.AvailableSlots = &slots
	return Result{Status: http.StatusOK, Response: resp}
}

func (e *Engine) resetDialogue(conv *entity.StubConversation) {
	*conv = entity.StubConversation{SessionId: conv.SessionId}
}

func (e *Engine) parseBookableDate(text string) (time.Time, bool) {
	day, err := time.Parse("2006-01-02", text)
	if err != nil {
		return time.Time{}, false
	}
	now := e.clock.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return day, !day.Before(tomorrow)
}

func (e *Engine) slotsFor(day time.Time) []entity.TimeSlot {
	step := time.Duration(e.cfg.SlotMinutes) * time.Minute
	start := day.Add(9 * time.Hour)
	slots := make([]entity.TimeSlot, e.cfg.SlotsPerDay)
	for i := range slots {
		from := start.Add(time.Duration(i) * step)
		slots[i] = entity.TimeSlot{
			Id:        uuid.NewString(),
			Date:      day.Format("2006-01-02"),
			StartTime: from.Format(time.RFC3339),
			EndTime:   from.Add(step).Format(time.RFC3339),
		}
	}
	return slots
}

func slotClock(slot entity.TimeSlot) string {
	if t, err := time.Parse(time.RFC3339, slot.StartTime); err == nil {
		return t.Format("15:04")
	}
	return slot.StartTime
}

func isBookIntent(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "book") || strings.Contains(lower, "appointment")
}

func isGreeting(lower string) bool {
	switch strings.Trim(lower, "!.? ") {
	case "hi", "hello", "hey", "good morning", "good afternoon":
		return true
	}
	return false
}
