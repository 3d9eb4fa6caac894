package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/dto"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/memory"
	"chatbot-widget/pkg/clock"
	"chatbot-widget/pkg/events"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

var errStorageDown = errors.New("storage down")

// failingStorage fails every call.
type failingStorage struct{}

func (failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errStorageDown
}
func (failingStorage) Set(ctx context.Context, key, value string) error { return errStorageDown }
func (failingStorage) Delete(ctx context.Context, key string) error     { return errStorageDown }

// flakyStorage wraps working storage; reads fail while readsDown is set.
type flakyStorage struct {
	*memory.StorageRepository
	mu        sync.Mutex
	readsDown bool
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{StorageRepository: memory.NewStorageRepository()}
}

func (s *flakyStorage) setReadsDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readsDown = down
}

func (s *flakyStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	down := s.readsDown
	s.mu.Unlock()
	if down {
		return "", false, errStorageDown
	}
	return s.StorageRepository.Get(ctx, key)
}

type replyFunc func(req dto.ChatRequest) (*dto.ChatResponse, error)

// fakeGateway records calls and answers from a queue of replies. With hold
// set, SendTurn signals entered and then waits for release.
type fakeGateway struct {
	mu       sync.Mutex
	requests []dto.ChatRequest
	closes   []dto.CloseSessionRequest
	replies  []replyFunc
	closeErr error

	hold     bool
	entered  chan dto.ChatRequest
	release  chan struct{}
	closeHit chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		entered:  make(chan dto.ChatRequest, 8),
		release:  make(chan struct{}),
		closeHit: make(chan string, 8),
	}
}

func (g *fakeGateway) reply(fn replyFunc) *fakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, fn)
	return g
}

func (g *fakeGateway) respond(resp *dto.ChatResponse) *fakeGateway {
	return g.reply(func(dto.ChatRequest) (*dto.ChatResponse, error) { return resp, nil })
}

func (g *fakeGateway) SendTurn(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	var fn replyFunc
	if len(g.replies) > 0 {
		fn, g.replies = g.replies[0], g.replies[1:]
	}
	hold := g.hold
	g.mu.Unlock()

	if hold {
		g.entered <- req
		<-g.release
	}
	if fn == nil {
		return &dto.ChatResponse{Success: true, Message: "echo: " + req.UserMessage}, nil
	}
	return fn(req)
}

func (g *fakeGateway) CloseSession(ctx context.Context, req dto.CloseSessionRequest) error {
	g.mu.Lock()
	g.closes = append(g.closes, req)
	err := g.closeErr
	g.mu.Unlock()
	g.closeHit <- req.SessionId
	return err
}

func (g *fakeGateway) Requests() []dto.ChatRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]dto.ChatRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

func (g *fakeGateway) Closes() []dto.CloseSessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]dto.CloseSessionRequest, len(g.closes))
	copy(out, g.closes)
	return out
}

type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *snapshotRecorder) PublishSnapshot(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *snapshotRecorder) All() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

type lifecycleRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *lifecycleRecorder) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.EventType())
	return nil
}

func (r *lifecycleRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.types))
	copy(out, r.types)
	return out
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	clock     *clock.Fake
	storage   *memory.StorageRepository
	gateway   *fakeGateway
	snapshots *snapshotRecorder
	lifecycle *lifecycleRecorder
	sessions  ISessionService
	messages  IMessageLogService
	booking   IBookingService
	conv      IConversationService
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, memory.NewStorageRepository(), clock.NewFake(epoch))
}

func newHarnessWith(t *testing.T, storage *memory.StorageRepository, clk *clock.Fake) *harness {
	log := logger.NewNopLogger()
	h := &harness{
		t:         t,
		ctx:       context.Background(),
		clock:     clk,
		storage:   storage,
		gateway:   newFakeGateway(),
		snapshots: &snapshotRecorder{},
		lifecycle: &lifecycleRecorder{},
	}
	h.sessions = NewSessionService(storage, clk, log)
	h.messages = NewMessageLogService(storage, clk, log, constant.DefaultMessageStorageKey)
	h.booking = NewBookingService(storage, clk, log)
	h.conv = NewConversationService(ConversationDeps{
		Sessions:  h.sessions,
		Messages:  h.messages,
		Booking:   h.booking,
		Gateway:   h.gateway,
		Clock:     clk,
		Logger:    log,
		Snapshots: h.snapshots,
		Lifecycle: h.lifecycle,
	}, constant.DefaultBotName, entity.PositionBottomRight)
	h.conv.Start(h.ctx)
	t.Cleanup(h.conv.Shutdown)
	return h
}

func (h *harness) open() string {
	h.conv.Toggle(h.ctx)
	snap := h.conv.Snapshot()
	if snap.State != entity.ChatStateOpen || snap.SessionId == "" {
		h.t.Fatalf("widget did not open: %+v", snap)
	}
	return snap.SessionId
}

func (h *harness) texts() []string {
	var out []string
	for _, m := range h.conv.Snapshot().Messages {
		out = append(out, string(m.Sender)+": "+m.Text)
	}
	return out
}

func bookingReply(msg string, status entity.BookingStatus, step entity.BookingStep, slots []entity.TimeSlot) *dto.ChatResponse {
	resp := &dto.ChatResponse{Success: true, Message: msg}
	resp.BookingStatus = &status
	resp.BookingStep = &step
	if slots != nil {
		resp.AvailableSlots = &slots
	}
	return resp
}
