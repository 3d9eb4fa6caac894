package contract

import "context"

// StorageRepository is the string key-value storage the widget persists its
// session, message log and booking state in. Get reports found=false for a
// missing key.
type StorageRepository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
