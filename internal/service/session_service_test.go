package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/memory"
	"chatbot-widget/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionIdPattern = regexp.MustCompile(`^session_\d+_[0-9a-f]{9}$`)

func TestSessionGetOrCreateIsStable(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorageRepository()
	svc := NewSessionService(storage, clock.NewFake(epoch), logger.NewNopLogger())

	_, ok := svc.Current(ctx)
	assert.False(t, ok)

	id := svc.GetOrCreate(ctx)
	assert.Regexp(t, sessionIdPattern, id)
	assert.Equal(t, id, svc.GetOrCreate(ctx))

	stored, found, err := storage.Get(ctx, constant.StorageKeySessionID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, stored)

	// a second service over the same storage shares the session
	other := NewSessionService(storage, clock.NewFake(epoch), logger.NewNopLogger())
	assert.Equal(t, id, other.GetOrCreate(ctx))
}

func TestSessionCurrentRecoversCreationTime(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(epoch)
	svc := NewSessionService(memory.NewStorageRepository(), fake, logger.NewNopLogger())

	id := svc.GetOrCreate(ctx)
	fake.Advance(2 * time.Minute)
	svc.Touch(ctx)

	session, ok := svc.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, id, session.Id)
	assert.True(t, session.CreatedAt.Equal(epoch))
	assert.True(t, session.LastActivityAt.Equal(epoch.Add(2*time.Minute)))
}

func TestSessionClearRemovesIdAndActivity(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorageRepository()
	svc := NewSessionService(storage, clock.NewFake(epoch), logger.NewNopLogger())

	id := svc.GetOrCreate(ctx)
	svc.Touch(ctx)
	_, found, _ := storage.Get(ctx, constant.StorageKeyLastActivityPrefix+id)
	require.True(t, found)

	svc.Clear(ctx)

	assert.Empty(t, storage.Keys())
	_, ok := svc.LastActivity(ctx)
	assert.False(t, ok)

	next := svc.GetOrCreate(ctx)
	assert.NotEqual(t, id, next)
}

func TestSessionTouchWithoutSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorageRepository()
	svc := NewSessionService(storage, clock.NewFake(epoch), logger.NewNopLogger())

	svc.Touch(ctx)
	assert.Empty(t, storage.Keys())
}

func TestSessionSurvivesStorageFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(failingStorage{}, clock.NewFake(epoch), logger.NewNopLogger())

	id := svc.GetOrCreate(ctx)
	assert.Regexp(t, sessionIdPattern, id)

	session, ok := svc.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, id, session.Id)

	svc.Clear(ctx)
	_, ok = svc.Current(ctx)
	assert.False(t, ok)
}

func TestSessionCreatedAtParsing(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"session_1740819600000_abcdef123", true},
		{"session_notanumber_abc", false},
		{"legacy-id", false},
	}
	for _, tt := range tests {
		_, ok := sessionCreatedAt(tt.id)
		assert.Equal(t, tt.want, ok, tt.id)
	}
}
