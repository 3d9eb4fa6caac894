package implementation

import (
	"context"
	"errors"

	"chatbot-widget/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type redisStorageRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStorageRepository stores every key under prefix so several widget
// deployments can share one Redis database.
func NewRedisStorageRepository(rdb *redis.Client, prefix string) contract.StorageRepository {
	return &redisStorageRepository{rdb: rdb, prefix: prefix}
}

func (r *redisStorageRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *redisStorageRepository) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *redisStorageRepository) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}
