package implementation

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"chatbot-widget/internal/repository/contract"
	"chatbot-widget/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, repo contract.StorageRepository) {
	ctx := context.Background()
	key := fmt.Sprintf("test_%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = repo.Delete(ctx, key) })

	_, found, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, key, `[{"id":"msg-1"}]`))
	require.NoError(t, repo.Set(ctx, key, "session_1740819600000_abc123def"))
	value, _, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "session_1740819600000_abc123def", value)

	require.NoError(t, repo.Set(ctx, key, `[]`))

	value, found, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, value)

	require.NoError(t, repo.Delete(ctx, key))
	_, found, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStorageRepository(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	rdb, err := database.NewRedisClient(url)
	require.NoError(t, err)
	defer rdb.Close()

	exerciseStorage(t, NewRedisStorageRepository(rdb, "widget-test:"))
}

func TestGormStorageRepository(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set")
	}
	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)

	repo, err := NewGormStorageRepository(db)
	require.NoError(t, err)
	exerciseStorage(t, repo)
}
