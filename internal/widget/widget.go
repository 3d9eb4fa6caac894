// Package widget is the embeddable handle around the conversation state
// machine. A host creates one with New (or through a Host, which mirrors the
// embed loader) and tears it down with Destroy.
package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/events"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/internal/service"
	"chatbot-widget/pkg/clock"
	"chatbot-widget/pkg/gateway"

	"github.com/go-playground/validator/v10"
)

var ErrDestroyed = errors.New("widget has been destroyed")

var validate = validator.New()

type Options struct {
	BotName    string          `validate:"omitempty,max=64"`
	Position   entity.Position `validate:"omitempty,oneof=bottom-right bottom-left"`
	StorageKey string          `validate:"omitempty,max=128"`
}

func (o Options) withDefaults() Options {
	if o.BotName == "" {
		o.BotName = constant.DefaultBotName
	}
	if o.Position == "" {
		o.Position = entity.PositionBottomRight
	}
	if o.StorageKey == "" {
		o.StorageKey = constant.DefaultMessageStorageKey
	}
	return o
}

type Deps struct {
	Storage contract.StorageRepository
	Gateway gateway.Gateway
	Clock   clock.Clock
	Logger  logger.ILogger
	// Optional.
	Lifecycle service.LifecyclePublisher
}

type Widget struct {
	conv   service.IConversationService
	bus    *events.SnapshotBus
	logger logger.ILogger
	opts   Options

	mu        sync.Mutex
	destroyed bool
	unsubs    []func()
}

// New validates opts, restores persisted state and returns a closed widget.
func New(ctx context.Context, deps Deps, opts Options) (*Widget, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid widget options: %w", err)
	}
	opts = opts.withDefaults()

	bus := events.NewSnapshotBus(deps.Logger)
	sessions := service.NewSessionService(deps.Storage, deps.Clock, deps.Logger)
	messages := service.NewMessageLogService(deps.Storage, deps.Clock, deps.Logger, opts.StorageKey)
	booking := service.NewBookingService(deps.Storage, deps.Clock, deps.Logger)

	conv := service.NewConversationService(service.ConversationDeps{
		Sessions:  sessions,
		Messages:  messages,
		Booking:   booking,
		Gateway:   deps.Gateway,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
		Snapshots: bus,
		Lifecycle: deps.Lifecycle,
	}, opts.BotName, opts.Position)
	conv.Start(ctx)

	deps.Logger.Info("Widget", "Widget initialized", map[string]interface{}{
		"bot_name":    opts.BotName,
		"position":    string(opts.Position),
		"storage_key": opts.StorageKey,
	})

	return &Widget{
		conv:   conv,
		bus:    bus,
		logger: deps.Logger,
		opts:   opts,
	}, nil
}

func (w *Widget) Options() Options {
	return w.opts
}

// Subscribe registers a renderer. It is called with every newer snapshot on
// a goroutine owned by the subscription.
func (w *Widget) Subscribe(fn func(service.Snapshot)) (func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return nil, ErrDestroyed
	}

	unsubscribe, err := w.bus.Subscribe(fn)
	if err != nil {
		return nil, err
	}
	var once sync.Once
	stop := func() { once.Do(unsubscribe) }
	w.unsubs = append(w.unsubs, stop)
	return stop, nil
}

func (w *Widget) Snapshot() service.Snapshot {
	return w.conv.Snapshot()
}

func (w *Widget) Toggle(ctx context.Context) {
	w.conv.Toggle(ctx)
}

func (w *Widget) Minimize() {
	w.conv.Minimize()
}

func (w *Widget) Maximize() {
	w.conv.Maximize()
}

func (w *Widget) Close(ctx context.Context) {
	w.conv.Close(ctx)
}

func (w *Widget) HandleKey(ctx context.Context, key string) {
	w.conv.HandleKey(ctx, key)
}

func (w *Widget) Send(ctx context.Context, text string) {
	w.conv.Send(ctx, text)
}

func (w *Widget) SelectSlot(ctx context.Context, slotId string) error {
	return w.conv.SelectSlot(ctx, slotId)
}

func (w *Widget) PickDate(ctx context.Context, date time.Time) error {
	return w.conv.PickDate(ctx, date)
}

func (w *Widget) Confirm(ctx context.Context, yes bool) error {
	return w.conv.Confirm(ctx, yes)
}

// Destroy stops timers and renderers. Persisted state is left in storage so
// a later widget resumes the conversation. Safe to call more than once.
func (w *Widget) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()

	w.conv.Shutdown()
	for _, stop := range unsubs {
		stop()
	}
	if err := w.bus.Close(); err != nil {
		w.logger.Warn("Widget", "Failed to close snapshot bus", map[string]interface{}{"error": err.Error()})
	}
	w.logger.Info("Widget", "Widget destroyed", nil)
}
