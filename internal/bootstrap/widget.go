package bootstrap

import (
	"fmt"

	"chatbot-widget/internal/config"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/internal/repository/implementation"
	"chatbot-widget/internal/repository/memory"
	"chatbot-widget/internal/widget"
	"chatbot-widget/pkg/clock"
	"chatbot-widget/pkg/database"
	"chatbot-widget/pkg/gateway"

	pktNats "chatbot-widget/pkg/nats"

	"gorm.io/gorm"
)

const redisKeyPrefix = "widget:"

// NewWidgetDeps builds everything a widget host needs from configuration.
// The returned cleanup releases connections opened along the way.
func NewWidgetDeps(cfg *config.Config, log logger.ILogger) (widget.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	storage, closeStorage, err := newStorage(cfg.Storage)
	if err != nil {
		return widget.Deps{}, cleanup, err
	}
	closers = append(closers, closeStorage)

	clk := clock.NewReal()
	deps := widget.Deps{
		Storage: storage,
		Gateway: newGateway(cfg.Gateway, clk, log),
		Clock:   clk,
		Logger:  log,
	}

	if cfg.Events.NatsURL != "" {
		publisher, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Warn("Bootstrap", "NATS unavailable, lifecycle events disabled", map[string]interface{}{"error": err.Error()})
		} else {
			deps.Lifecycle = publisher
			closers = append(closers, publisher.Close)
		}
	}

	return deps, cleanup, nil
}

func newGateway(cfg config.GatewayConfig, clk clock.Clock, log logger.ILogger) gateway.Gateway {
	if cfg.BaseURL == "" {
		return gateway.NewPlaceholderGateway(clk)
	}
	return gateway.NewHTTPGateway(cfg.BaseURL, cfg.APIRoute, cfg.Timeout, log)
}

func newStorage(cfg config.StorageConfig) (contract.StorageRepository, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.NewStorageRepository(), func() {}, nil
	case "redis":
		rdb, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return implementation.NewRedisStorageRepository(rdb, redisKeyPrefix), func() { _ = rdb.Close() }, nil
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Connection, false)
		if err != nil {
			return nil, nil, err
		}
		return newGormStorage(db)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newGormStorage owns db: it is closed if the repository cannot be set up.
func newGormStorage(db *gorm.DB) (contract.StorageRepository, func(), error) {
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	repo, err := implementation.NewGormStorageRepository(db)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return repo, closeDB, nil
}
