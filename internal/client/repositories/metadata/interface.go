// Package metadata stores small opaque values in the local database under
// string keys.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
