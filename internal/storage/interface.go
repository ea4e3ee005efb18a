package storage

import (
	"context"
	"errors"
)

// Keys persisted by the session store
const (
	KeyAccessToken = "access_token"
	KeyUsername    = "username"
)

// ErrNotFound is returned by Get when the key has no value
var ErrNotFound = errors.New("key not found")

// Storage is durable client-side key-value storage. Multi-key writes and
// deletes are all-or-nothing so paired entries never diverge.
type Storage interface {
	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// SetAll writes every entry in one atomic step
	SetAll(ctx context.Context, entries map[string]string) error

	// DeleteAll removes every key in one atomic step. Missing keys are ignored.
	DeleteAll(ctx context.Context, keys ...string) error
}
