package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/entity"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/memory"
	"chatbot-widget/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var messageIdPattern = regexp.MustCompile(`^msg-\d+-[0-9a-f]{9}$`)

func newMessageLog(storage *memory.StorageRepository, clk clock.Clock) IMessageLogService {
	return NewMessageLogService(storage, clk, logger.NewNopLogger(), constant.DefaultMessageStorageKey)
}

func TestMessageLogAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(epoch)
	log := newMessageLog(memory.NewStorageRepository(), fake)

	first := log.Append(ctx, entity.NewMessage{Text: "hello", Sender: entity.SenderUser})
	fake.Advance(time.Second)
	second := log.Append(ctx, entity.NewMessage{Text: "Hi! How can I help?", Sender: entity.SenderBot})

	assert.Regexp(t, messageIdPattern, first.Id)
	assert.NotEqual(t, first.Id, second.Id)
	assert.Equal(t, epoch.UnixMilli(), first.Timestamp)
	assert.Equal(t, epoch.Add(time.Second).UnixMilli(), second.Timestamp)
	assert.Equal(t, []entity.Message{first, second}, log.Messages())
}

func TestMessageLogReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorageRepository()
	fake := clock.NewFake(epoch)

	log := newMessageLog(storage, fake)
	log.Append(ctx, entity.NewMessage{Text: "one", Sender: entity.SenderUser})
	log.Append(ctx, entity.NewMessage{Text: "two", Sender: entity.SenderBot})
	log.Append(ctx, entity.NewMessage{Text: "three", Sender: entity.SenderUser})

	reloaded := newMessageLog(storage, fake)
	assert.Equal(t, log.Messages(), reloaded.Load(ctx))
}

func TestMessageLogToleratesCorruption(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"object instead of array", `{"id":"msg-1"}`},
		{"array of strings", `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			storage := memory.NewStorageRepository()
			require.NoError(t, storage.Set(ctx, constant.DefaultMessageStorageKey, tt.raw))

			log := newMessageLog(storage, clock.NewFake(epoch))
			assert.Empty(t, log.Load(ctx))

			log.Append(ctx, entity.NewMessage{Text: "fresh", Sender: entity.SenderUser})
			assert.Len(t, log.Messages(), 1)
		})
	}
}

func TestMessageLogClearDeletesKey(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorageRepository()
	log := newMessageLog(storage, clock.NewFake(epoch))
	log.Append(ctx, entity.NewMessage{Text: "hello", Sender: entity.SenderUser})

	log.Clear(ctx)

	assert.Empty(t, log.Messages())
	_, found, err := storage.Get(ctx, constant.DefaultMessageStorageKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMessageLogKeepsWorkingWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	log := NewMessageLogService(failingStorage{}, clock.NewFake(epoch), logger.NewNopLogger(), "k")

	assert.Empty(t, log.Load(ctx))
	log.Append(ctx, entity.NewMessage{Text: "hello", Sender: entity.SenderUser})
	assert.Len(t, log.Messages(), 1)
}

func TestMessageLogReturnsCopies(t *testing.T) {
	ctx := context.Background()
	log := newMessageLog(memory.NewStorageRepository(), clock.NewFake(epoch))
	log.Append(ctx, entity.NewMessage{Text: "hello", Sender: entity.SenderUser})

	msgs := log.Messages()
	msgs[0].Text = "changed"
	assert.Equal(t, "hello", log.Messages()[0].Text)
}

func TestMessageLogReadFailureDoesNotOverwriteStoredLog(t *testing.T) {
	ctx := context.Background()
	storage := newFlakyStorage()
	fake := clock.NewFake(epoch)

	first := NewMessageLogService(storage, fake, logger.NewNopLogger(), constant.DefaultMessageStorageKey)
	first.Append(ctx, entity.NewMessage{Text: "one", Sender: entity.SenderUser})
	first.Append(ctx, entity.NewMessage{Text: "two", Sender: entity.SenderBot})

	storage.setReadsDown(true)
	reloaded := NewMessageLogService(storage, fake, logger.NewNopLogger(), constant.DefaultMessageStorageKey)
	assert.Empty(t, reloaded.Load(ctx))
	reloaded.Append(ctx, entity.NewMessage{Text: "three", Sender: entity.SenderUser})

	// still unreadable: nothing was written
	storage.setReadsDown(false)
	assert.Len(t, NewMessageLogService(storage, fake, logger.NewNopLogger(), constant.DefaultMessageStorageKey).Load(ctx), 2)

	// once reads work again the stored log is merged before the write
	reloaded.Append(ctx, entity.NewMessage{Text: "four", Sender: entity.SenderBot})
	assert.Equal(t, []string{"one", "two", "three", "four"}, messageTexts(reloaded.Messages()))

	persisted := NewMessageLogService(storage, fake, logger.NewNopLogger(), constant.DefaultMessageStorageKey).Load(ctx)
	assert.Equal(t, []string{"one", "two", "three", "four"}, messageTexts(persisted))
}

func messageTexts(msgs []entity.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
