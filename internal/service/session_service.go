package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/pkg/clock"
)

// ISessionService owns the persisted conversation identity.
type ISessionService interface {
	GetOrCreate(ctx context.Context) string
	Current(ctx context.Context) (*entity.Session, bool)
	Clear(ctx context.Context)
	Touch(ctx context.Context)
	LastActivity(ctx context.Context) (time.Time, bool)
}

type sessionService struct {
	storage contract.StorageRepository
	clock   clock.Clock
	logger  logger.ILogger

	mu sync.Mutex
	// last id read from or written to storage; used when storage fails
	cached string
}

func NewSessionService(storage contract.StorageRepository, clk clock.Clock, log logger.ILogger) ISessionService {
	return &sessionService{
		storage: storage,
		clock:   clk,
		logger:  log,
	}
}

func (s *sessionService) GetOrCreate(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.readIdLocked(ctx); ok {
		return id
	}

	id := newSessionId(s.clock.Now())
	if err := s.storage.Set(ctx, constant.StorageKeySessionID, id); err != nil {
		s.logger.Error("SessionService", "Failed to persist session id", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
	}
	s.cached = id
	s.logger.Info("SessionService", "Session created", map[string]interface{}{"session_id": id})
	return id
}

func (s *sessionService) Current(ctx context.Context) (*entity.Session, bool) {
	s.mu.Lock()
	id, ok := s.readIdLocked(ctx)
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	session := &entity.Session{Id: id}
	if created, ok := sessionCreatedAt(id); ok {
		session.CreatedAt = created
	}
	if last, ok := s.LastActivity(ctx); ok {
		session.LastActivityAt = last
	}
	return session, true
}

func (s *sessionService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.readIdLocked(ctx)
	if ok {
		if err := s.storage.Delete(ctx, constant.StorageKeyLastActivityPrefix+id); err != nil {
			s.logger.Warn("SessionService", "Failed to delete last activity", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
		}
	}
	if err := s.storage.Delete(ctx, constant.StorageKeySessionID); err != nil {
		s.logger.Error("SessionService", "Failed to delete session id", map[string]interface{}{"error": err.Error()})
	}
	s.cached = ""
	if ok {
		s.logger.Info("SessionService", "Session cleared", map[string]interface{}{"session_id": id})
	}
}

func (s *sessionService) Touch(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.readIdLocked(ctx)
	if !ok {
		return
	}
	now := strconv.FormatInt(s.clock.Now().UnixMilli(), 10)
	if err := s.storage.Set(ctx, constant.StorageKeyLastActivityPrefix+id, now); err != nil {
		s.logger.Warn("SessionService", "Failed to persist last activity", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
	}
}

func (s *sessionService) LastActivity(ctx context.Context) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.readIdLocked(ctx)
	if !ok {
		return time.Time{}, false
	}
	raw, found, err := s.storage.Get(ctx, constant.StorageKeyLastActivityPrefix+id)
	if err != nil || !found {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("SessionService", "Stored last activity is not a timestamp", map[string]interface{}{"value": raw})
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *sessionService) readIdLocked(ctx context.Context) (string, bool) {
	id, found, err := s.storage.Get(ctx, constant.StorageKeySessionID)
	if err != nil {
		s.logger.Warn("SessionService", "Failed to read session id, using in-memory copy", map[string]interface{}{
			"error": err.Error(),
		})
		return s.cached, s.cached != ""
	}
	if !found || id == "" {
		return "", false
	}
	s.cached = id
	return id, true
}
