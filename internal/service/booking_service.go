package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/pkg/clock"
)

// IBookingService tracks the backend-directed booking sub-flow and its
// inactivity timeout.
type IBookingService interface {
	Load(ctx context.Context) entity.BookingState
	Update(ctx context.Context, patch entity.BookingPatch) entity.BookingState
	Reset(ctx context.Context)
	// CheckTimeout resets an active booking idle for the inactivity timeout
	// or longer and reports whether it did.
	CheckTimeout(ctx context.Context, now time.Time) bool
	State() entity.BookingState
}

type bookingService struct {
	storage contract.StorageRepository
	clock   clock.Clock
	logger  logger.ILogger
	timeout time.Duration

	mu    sync.Mutex
	state entity.BookingState
	// While loaded is false the stored state is unknown: updates collect
	// in pending and are written only after a read succeeds.
	loaded  bool
	pending entity.BookingPatch
}

func NewBookingService(storage contract.StorageRepository, clk clock.Clock, log logger.ILogger) IBookingService {
	return &bookingService{
		storage: storage,
		clock:   clk,
		logger:  log,
		timeout: constant.BookingInactivityTimeout,
		state:   entity.BookingState{LastActivityTime: clk.Now().UnixMilli()},
	}
}

// storedBookingState tells a missing lastActivityTime apart from zero.
type storedBookingState struct {
	BookingStatus    entity.BookingStatus `json:"bookingStatus"`
	BookingStep      entity.BookingStep   `json:"bookingStep"`
	AvailableSlots   []entity.TimeSlot    `json:"availableSlots"`
	LastActivityTime *int64               `json:"lastActivityTime"`
}

func (s *bookingService) Load(ctx context.Context) entity.BookingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.readLocked(ctx)
	s.state = state
	s.loaded = err == nil
	s.pending = entity.BookingPatch{}
	return s.state.Clone()
}

// readLocked returns the stored state. Missing or corrupt data reads as an
// empty booking; only a storage failure is an error.
func (s *bookingService) readLocked(ctx context.Context) (entity.BookingState, error) {
	now := s.clock.Now().UnixMilli()
	empty := entity.BookingState{LastActivityTime: now}

	raw, found, err := s.storage.Get(ctx, constant.StorageKeyBookingState)
	if err != nil {
		s.logger.Error("BookingService", "Failed to read booking state", map[string]interface{}{"error": err.Error()})
		return empty, err
	}
	if !found {
		return empty, nil
	}

	var stored storedBookingState
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("BookingService", "Stored booking state is corrupt, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		return empty, nil
	}

	state := entity.BookingState{
		BookingStatus:    stored.BookingStatus,
		BookingStep:      stored.BookingStep,
		AvailableSlots:   stored.AvailableSlots,
		LastActivityTime: now,
	}
	if stored.LastActivityTime != nil {
		state.LastActivityTime = *stored.LastActivityTime
	}
	normalize(&state)
	return state, nil
}

func (s *bookingService) Update(ctx context.Context, patch entity.BookingPatch) entity.BookingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.BookingStatus
	applyPatch(&s.state, patch)
	s.state.LastActivityTime = s.clock.Now().UnixMilli()

	if !s.loaded {
		s.pending = mergePatch(s.pending, patch)
		stored, err := s.readLocked(ctx)
		if err != nil {
			s.logger.Warn("BookingService", "Stored booking state still unreadable, not persisting", nil)
			return s.state.Clone()
		}
		applyPatch(&stored, s.pending)
		stored.LastActivityTime = s.state.LastActivityTime
		s.state = stored
		s.loaded = true
		s.pending = entity.BookingPatch{}
	}
	s.persistLocked(ctx)

	if before != s.state.BookingStatus {
		s.logger.Info("BookingService", "Booking status changed", map[string]interface{}{
			"from": string(before),
			"to":   string(s.state.BookingStatus),
			"step": string(s.state.BookingStep),
		})
	}
	return s.state.Clone()
}

func (s *bookingService) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(ctx)
}

func (s *bookingService) CheckTimeout(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active() {
		return false
	}
	idle := now.UnixMilli() - s.state.LastActivityTime
	if idle < s.timeout.Milliseconds() {
		return false
	}
	s.logger.Info("BookingService", "Booking expired due to inactivity", map[string]interface{}{
		"status":  string(s.state.BookingStatus),
		"step":    string(s.state.BookingStep),
		"idle_ms": idle,
	})
	s.resetLocked(ctx)
	return true
}

func (s *bookingService) State() entity.BookingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *bookingService) resetLocked(ctx context.Context) {
	s.state.BookingStatus = entity.BookingStatusNone
	s.state.BookingStep = entity.BookingStepNone
	s.state.AvailableSlots = nil
	s.loaded = true
	s.pending = entity.BookingPatch{}
	if err := s.storage.Delete(ctx, constant.StorageKeyBookingState); err != nil {
		s.logger.Error("BookingService", "Failed to delete booking state", map[string]interface{}{"error": err.Error()})
	}
}

func (s *bookingService) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("BookingService", "Failed to encode booking state", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.storage.Set(ctx, constant.StorageKeyBookingState, string(data)); err != nil {
		s.logger.Error("BookingService", "Failed to persist booking state", map[string]interface{}{"error": err.Error()})
	}
}

func applyPatch(state *entity.BookingState, patch entity.BookingPatch) {
	if patch.Status != nil {
		state.BookingStatus = *patch.Status
	}
	if patch.Step != nil {
		state.BookingStep = *patch.Step
	}
	if patch.AvailableSlots != nil {
		state.AvailableSlots = *patch.AvailableSlots
	}
	normalize(state)
}

// mergePatch overlays later onto earlier; fields later leaves out survive.
func mergePatch(earlier, later entity.BookingPatch) entity.BookingPatch {
	if later.Status != nil {
		earlier.Status = later.Status
	}
	if later.Step != nil {
		earlier.Step = later.Step
	}
	if later.AvailableSlots != nil {
		earlier.AvailableSlots = later.AvailableSlots
	}
	return earlier
}

// normalize enforces that a null status carries no step and no slots.
func normalize(state *entity.BookingState) {
	if state.BookingStatus.IsNull() {
		state.BookingStep = entity.BookingStepNone
		state.AvailableSlots = nil
	}
}
