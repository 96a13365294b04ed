package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written or has
// been deleted. Callers treat it as an expected state, not a failure.
var ErrNotFound = errors.New("kv: key not found")

// Store is the device key-value surface the user record store persists
// through. All user profiles are serialized together under a single key, so
// a Set of that key rewrites the whole collection.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
