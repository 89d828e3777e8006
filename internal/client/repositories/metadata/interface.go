// Package metadata stores small key/value records next to the cache
// partitions, such as the persisted OAuth token.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, false, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
