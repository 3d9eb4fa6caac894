package service

import (
	"context"
	"encoding/json"
	"sync"

	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/pkg/clock"
)

// IMessageLogService is the ordered, append-only chat transcript.
type IMessageLogService interface {
	Load(ctx context.Context) []entity.Message
	Append(ctx context.Context, msg entity.NewMessage) entity.Message
	Clear(ctx context.Context)
	Messages() []entity.Message
}

type messageLogService struct {
	storage contract.StorageRepository
	clock   clock.Clock
	logger  logger.ILogger
	key     string

	mu       sync.Mutex
	messages []entity.Message
	// loaded is false after a failed read. Nothing is written until a
	// read succeeds, so a storage blip cannot overwrite the stored log.
	loaded bool
}

func NewMessageLogService(storage contract.StorageRepository, clk clock.Clock, log logger.ILogger, key string) IMessageLogService {
	return &messageLogService{
		storage: storage,
		clock:   clk,
		logger:  log,
		key:     key,
	}
}

func (s *messageLogService) Load(ctx context.Context) []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	stored, err := s.readLocked(ctx)
	if err != nil {
		s.loaded = false
		return []entity.Message{}
	}
	s.loaded = true
	s.messages = stored
	return s.copyLocked()
}

// readLocked returns the stored log. Missing or corrupt data reads as
// empty; only a storage failure is an error.
func (s *messageLogService) readLocked(ctx context.Context) ([]entity.Message, error) {
	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("MessageLog", "Failed to read messages", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var stored []entity.Message
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("MessageLog", "Stored messages are corrupt, starting empty", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return nil, nil
	}
	return stored, nil
}

func (s *messageLogService) Append(ctx context.Context, msg entity.NewMessage) entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	m := entity.Message{
		Id:        newMessageId(now),
		Text:      msg.Text,
		Sender:    msg.Sender,
		Timestamp: now.UnixMilli(),
	}
	s.messages = append(s.messages, m)
	s.persistLocked(ctx)
	return m
}

func (s *messageLogService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.loaded = true
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.Error("MessageLog", "Failed to delete messages", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
	}
}

func (s *messageLogService) Messages() []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *messageLogService) persistLocked(ctx context.Context) {
	if !s.loaded {
		stored, err := s.readLocked(ctx)
		if err != nil {
			s.logger.Warn("MessageLog", "Stored messages still unreadable, keeping new messages in memory", map[string]interface{}{
				"key":     s.key,
				"pending": len(s.messages),
			})
			return
		}
		s.messages = append(stored, s.messages...)
		s.loaded = true
	}

	data, err := json.Marshal(s.messages)
	if err != nil {
		s.logger.Error("MessageLog", "Failed to encode messages", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error("MessageLog", "Failed to persist messages", map[string]interface{}{
			"key":   s.key,
			"count": len(s.messages),
			"error": err.Error(),
		})
	}
}

func (s *messageLogService) copyLocked() []entity.Message {
	out := make([]entity.Message, len(s.messages))
	copy(out, s.messages)
	return out
}
