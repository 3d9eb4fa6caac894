package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/dto"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/pkg/clock"
	"chatbot-widget/pkg/events"
	"chatbot-widget/pkg/gateway"
)

var (
	ErrWrongStep    = errors.New("booking is not at the step this control belongs to")
	ErrUnknownSlot  = errors.New("slot is not among the offered slots")
	ErrDateTooEarly = errors.New("date is before the first bookable day")
)

// LifecyclePublisher forwards conversation lifecycle events to an external
// bus.
type LifecyclePublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// IConversationService is the widget's state machine. Every method may be
// called from any goroutine; handlers run one at a time and the backend
// call inside Send is the only point where another handler can interleave.
type IConversationService interface {
	Start(ctx context.Context) Snapshot
	Toggle(ctx context.Context)
	Minimize()
	Maximize()
	Close(ctx context.Context)
	HandleKey(ctx context.Context, key string)
	Send(ctx context.Context, text string)
	SelectSlot(ctx context.Context, slotId string) error
	PickDate(ctx context.Context, date time.Time) error
	Confirm(ctx context.Context, yes bool) error
	Snapshot() Snapshot
	Shutdown()
}

type ConversationDeps struct {
	Sessions ISessionService
	Messages IMessageLogService
	Booking  IBookingService
	Gateway  gateway.Gateway
	Clock    clock.Clock
	Logger   logger.ILogger
	// Optional.
	Snapshots SnapshotPublisher
	Lifecycle LifecyclePublisher
}

type conversationService struct {
	deps     ConversationDeps
	botName  string
	position entity.Position

	mu        sync.Mutex
	state     entity.ChatState
	sessionId string
	inFlight  int
	// epoch changes on every close so replies for a closed session are dropped
	epoch    uint64
	revision uint64
	sweep    clock.Ticker
	shutdown bool

	// outstanding close notifications and lifecycle publishes
	wg sync.WaitGroup
}

func NewConversationService(deps ConversationDeps, botName string, position entity.Position) IConversationService {
	return &conversationService{
		deps:     deps,
		botName:  botName,
		position: position,
		state:    entity.ChatStateClosed,
	}
}

// Start restores persisted state. The widget always starts closed.
func (s *conversationService) Start(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = entity.ChatStateClosed
	s.deps.Messages.Load(ctx)
	s.deps.Booking.Load(ctx)
	if session, ok := s.deps.Sessions.Current(ctx); ok {
		s.sessionId = session.Id
	}

	if s.deps.Booking.CheckTimeout(ctx, s.deps.Clock.Now()) {
		s.appendBotLocked(ctx, constant.BookingExpiredMessage)
		s.publishLifecycleLocked(ctx, constant.EventBookingExpired, nil)
	}
	s.reconcileExpiryLocked(ctx)
	s.syncSweepLocked()

	s.deps.Logger.Info("Conversation", "Conversation started", map[string]interface{}{
		"session_id":     s.sessionId,
		"messages":       len(s.deps.Messages.Messages()),
		"booking_status": string(s.deps.Booking.State().BookingStatus),
	})
	return s.publishLocked()
}

func (s *conversationService) Toggle(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}

	if s.state == entity.ChatStateClosed {
		s.openLocked(ctx)
	} else {
		s.closeLocked(ctx)
	}
	s.publishLocked()
}

func (s *conversationService) Minimize() {
	s.setVisibility(entity.ChatStateOpen, entity.ChatStateMinimized)
}

func (s *conversationService) Maximize() {
	s.setVisibility(entity.ChatStateMinimized, entity.ChatStateOpen)
}

func (s *conversationService) setVisibility(from, to entity.ChatState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown || s.state != from {
		return
	}
	s.state = to
	s.publishLocked()
}

func (s *conversationService) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.closeLocked(ctx)
	s.publishLocked()
}

func (s *conversationService) HandleKey(ctx context.Context, key string) {
	if key != constant.KeyEscape {
		return
	}
	s.mu.Lock()
	closed := s.state == entity.ChatStateClosed
	s.mu.Unlock()
	if !closed {
		s.Close(ctx)
	}
}

func (s *conversationService) Send(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	s.mu.Lock()
	if s.shutdown || s.sessionId == "" {
		s.mu.Unlock()
		return
	}
	sessionId := s.sessionId
	epoch := s.epoch
	s.deps.Messages.Append(ctx, entity.NewMessage{Text: text, Sender: entity.SenderUser})
	s.inFlight++
	s.deps.Sessions.Touch(ctx)
	s.publishLocked()
	s.mu.Unlock()

	resp, err := s.deps.Gateway.SendTurn(ctx, dto.ChatRequest{
		SessionId:   sessionId,
		UserMessage: trimmed,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	if epoch != s.epoch {
		s.deps.Logger.Info("Conversation", "Discarding reply for a closed session", map[string]interface{}{
			"session_id": sessionId,
		})
		return
	}
	s.inFlight--
	s.applyReplyLocked(ctx, resp, err)
	s.publishLocked()
}

func (s *conversationService) applyReplyLocked(ctx context.Context, resp *dto.ChatResponse, err error) {
	if err != nil {
		s.deps.Logger.Error("Conversation", "Chat API error", map[string]interface{}{
			"session_id": s.sessionId,
			"error":      err.Error(),
		})
		s.appendBotLocked(ctx, constant.SendFailedMessage)
		return
	}

	switch {
	case !resp.Success:
		errText := resp.ErrorText()
		s.deps.Logger.Warn("Conversation", "Backend reported a failed turn", map[string]interface{}{
			"session_id": s.sessionId,
			"error":      errText,
		})
		s.appendBotLocked(ctx, constant.ErrorMessagePrefix+errText)
	case resp.Message != "":
		s.appendBotLocked(ctx, resp.Message)
	}

	if patch := resp.BookingPatch(); !patch.IsEmpty() {
		before := s.deps.Booking.State().BookingStatus
		after := s.deps.Booking.Update(ctx, patch)
		s.deps.Sessions.Touch(ctx)
		if after.BookingStatus == entity.BookingStatusCompleted && before != entity.BookingStatusCompleted {
			s.publishLifecycleLocked(ctx, constant.EventBookingCompleted, nil)
		}
	}

	s.reconcileExpiryLocked(ctx)
	s.syncSweepLocked()
}

func (s *conversationService) SelectSlot(ctx context.Context, slotId string) error {
	booking := s.Snapshot().Booking
	if booking.BookingStep != entity.BookingStepShowSlots {
		return ErrWrongStep
	}
	choice, ok := SlotChoice(booking.AvailableSlots, slotId)
	if !ok {
		return ErrUnknownSlot
	}
	s.Send(ctx, choice)
	return nil
}

func (s *conversationService) PickDate(ctx context.Context, date time.Time) error {
	if s.Snapshot().Booking.BookingStep != entity.BookingStepAskDate {
		return ErrWrongStep
	}
	now := s.deps.Clock.Now()
	y, m, d := date.Date()
	if time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Before(MinBookableDate(now)) {
		return ErrDateTooEarly
	}
	s.Send(ctx, DateChoice(date))
	return nil
}

func (s *conversationService) Confirm(ctx context.Context, yes bool) error {
	if s.Snapshot().Booking.BookingStep != entity.BookingStepConfirmSlot {
		return ErrWrongStep
	}
	s.Send(ctx, ConfirmChoice(yes))
	return nil
}

func (s *conversationService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Shutdown stops the sweep, waits a bounded time for background work and
// leaves the conversation inert. Persisted state is kept.
func (s *conversationService) Shutdown() {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	s.syncSweepLocked()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(constant.ShutdownWaitTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.deps.Logger.Warn("Conversation", "Background work still running at shutdown", nil)
	}
}

func (s *conversationService) openLocked(ctx context.Context) {
	id := s.deps.Sessions.GetOrCreate(ctx)
	if id != s.sessionId {
		s.sessionId = id
		s.publishLifecycleLocked(ctx, constant.EventSessionOpened, nil)
	}
	s.state = entity.ChatStateOpen
}

// closeLocked notifies the backend in the background, then clears all
// conversation state whether or not the notification succeeds.
func (s *conversationService) closeLocked(ctx context.Context) {
	if id := s.sessionId; id != "" {
		s.wg.Add(1)
		go s.notifyClose(context.WithoutCancel(ctx), id)
		s.publishLifecycleLocked(ctx, constant.EventSessionClosed, nil)
	}

	s.deps.Messages.Clear(ctx)
	s.deps.Booking.Reset(ctx)
	s.inFlight = 0
	s.epoch++
	s.deps.Sessions.Clear(ctx)
	s.sessionId = ""
	s.state = entity.ChatStateClosed
	s.syncSweepLocked()
}

func (s *conversationService) notifyClose(ctx context.Context, sessionId string) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(ctx, constant.CloseNotifyTimeout)
	defer cancel()

	if err := s.deps.Gateway.CloseSession(ctx, dto.CloseSessionRequest{SessionId: sessionId}); err != nil {
		s.deps.Logger.Warn("Conversation", "Failed to close session", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}
	s.deps.Logger.Debug("Conversation", "Session close acknowledged", map[string]interface{}{"session_id": sessionId})
}

func (s *conversationService) appendBotLocked(ctx context.Context, text string) {
	s.deps.Messages.Append(ctx, entity.NewMessage{Text: text, Sender: entity.SenderBot})
}

// reconcileExpiryLocked resets a booking the backend already declared
// expired in its latest reply.
func (s *conversationService) reconcileExpiryLocked(ctx context.Context) {
	if !s.deps.Booking.State().Active() {
		return
	}
	messages := s.deps.Messages.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender != entity.SenderBot {
			continue
		}
		if strings.Contains(messages[i].Text, constant.BookingExpiredIndicator) {
			s.deps.Logger.Info("Conversation", "Backend reported the booking expired", map[string]interface{}{
				"session_id": s.sessionId,
			})
			s.deps.Booking.Reset(ctx)
		}
		return
	}
}

// syncSweepLocked runs the inactivity sweep exactly while a booking is
// active.
func (s *conversationService) syncSweepLocked() {
	want := !s.shutdown && s.deps.Booking.State().Active()
	switch {
	case want && s.sweep == nil:
		s.sweep = s.deps.Clock.Every(constant.BookingSweepInterval, s.sweepTick)
	case !want && s.sweep != nil:
		s.sweep.Stop()
		s.sweep = nil
	}
}

func (s *conversationService) sweepTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown || s.sweep == nil {
		return
	}

	ctx := context.Background()
	if s.deps.Booking.CheckTimeout(ctx, s.deps.Clock.Now()) {
		s.appendBotLocked(ctx, constant.BookingExpiredMessage)
		s.publishLifecycleLocked(ctx, constant.EventBookingExpired, nil)
		s.syncSweepLocked()
		s.publishLocked()
	}
}

func (s *conversationService) publishLifecycleLocked(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.deps.Lifecycle == nil {
		return
	}
	event := events.NewWidgetEvent(eventType, s.sessionId, s.deps.Clock.Now(), data)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constant.CloseNotifyTimeout)
		defer cancel()
		if err := s.deps.Lifecycle.Publish(ctx, event); err != nil {
			s.deps.Logger.Warn("Conversation", "Failed to publish lifecycle event", map[string]interface{}{
				"event": eventType,
				"error": err.Error(),
			})
		}
	}()
}

func (s *conversationService) publishLocked() Snapshot {
	s.revision++
	snap := s.snapshotLocked()
	if s.deps.Snapshots != nil {
		s.deps.Snapshots.PublishSnapshot(snap)
	}
	return snap
}

func (s *conversationService) snapshotLocked() Snapshot {
	booking := s.deps.Booking.State()
	return Snapshot{
		Revision:  s.revision,
		State:     s.state,
		SessionId: s.sessionId,
		Messages:  s.deps.Messages.Messages(),
		Loading:   s.inFlight > 0,
		Booking:   booking,
		BotName:   s.botName,
		Position:  s.position,
		InputHint: InputHint(booking.BookingStep),
	}
}
