package oneshot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Take and Get when the key is absent, expired or already taken.
var ErrNotFound = errors.New("oneshot: key not found")

// ErrEmptyKey is returned when an operation is given an empty key.
var ErrEmptyKey = errors.New("oneshot: empty key")

// Store is read-once, last-write-wins storage keyed by string.
type Store[V any] interface {
	Put(ctx context.Context, key string, value V) error
	Take(ctx context.Context, key string) (V, error)
}

// PeekStore is a Store whose values can also be read without consuming them.
type PeekStore[V any] interface {
	Store[V]
	// Get returns the value under key and leaves it in place.
	Get(ctx context.Context, key string) (V, error)
}
