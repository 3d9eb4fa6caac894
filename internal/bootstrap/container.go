package bootstrap

import (
	"context"
	"fmt"
	"log"

	"chatbot-widget/internal/config"
	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/controller"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/pkg/mailer"
	"chatbot-widget/internal/repository/memory"
	"chatbot-widget/internal/stub"
	"chatbot-widget/pkg/clock"
	"chatbot-widget/pkg/events"

	pktNats "chatbot-widget/pkg/nats"
)

// Container wires the stub chat backend served by cmd/stubgateway.
type Container struct {
	// Controllers
	ChatController controller.IChatController

	Engine *stub.Engine
	Logger logger.ILogger

	// Nil when NATS_URL is unset.
	Subscriber *pktNats.Subscriber
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	clk := clock.NewReal()

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
	}

	// 2. Stub Engine
	conversations := memory.NewSessionRepository(constant.BookingInactivityTimeout)
	engine := stub.NewEngine(conversations, clk, sysLogger, stub.Config{
		SlotMinutes: cfg.Stub.SlotMinutes,
		Mailer:      emailService,
	})

	// 3. Event Subscriber (optional)
	var subscriber *pktNats.Subscriber
	if cfg.Events.NatsURL != "" {
		sub, err := pktNats.NewSubscriber(cfg.Events.NatsURL)
		if err != nil {
			log.Printf("Warning: NATS unavailable, lifecycle events disabled: %v", err)
		} else {
			subscriber = sub
		}
	}

	// 4. Controllers
	return &Container{
		ChatController: controller.NewChatController(engine),
		Engine:         engine,
		Logger:         sysLogger,
		Subscriber:     subscriber,
	}
}

// StartConsumers follows widget lifecycle events: closed sessions are
// dropped from the stub and booking outcomes are logged for audit.
func (c *Container) StartConsumers(ctx context.Context) error {
	if c.Subscriber == nil {
		return nil
	}

	if err := c.Subscriber.Subscribe(ctx, pktNats.Subject(constant.EventSessionClosed), "stub-session-closed",
		func(ctx context.Context, event events.Event) error {
			sessionId, ok := event.Payload()["sessionId"].(string)
			if !ok || sessionId == "" {
				return fmt.Errorf("event %s has no sessionId", event.EventType())
			}
			c.Engine.Close(sessionId)
			return nil
		}); err != nil {
		return err
	}

	return c.Subscriber.Subscribe(ctx, pktNats.Subject("booking.*"), "stub-booking-audit",
		func(ctx context.Context, event events.Event) error {
			c.Logger.Info("BookingAudit", event.EventType(), event.Payload())
			return nil
		})
}

func (c *Container) Close() {
	if c.Subscriber != nil {
		c.Subscriber.Close()
	}
	_ = c.Logger.Sync()
}
