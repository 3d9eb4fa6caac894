package memory

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// StorageRepository keeps widget state in process memory. Entries never
// expire, matching browser local storage.
type StorageRepository struct {
	cache *cache.Cache
}

func NewStorageRepository() *StorageRepository {
	return &StorageRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *StorageRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if x, found := r.cache.Get(key); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (r *StorageRepository) Set(ctx context.Context, key, value string) error {
	r.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (r *StorageRepository) Delete(ctx context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}

// Keys lists the stored keys. The terminal client's /storage command
// uses it to dump everything.
func (r *StorageRepository) Keys() []string {
	items := r.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}
