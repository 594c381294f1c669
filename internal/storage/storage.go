// Package storage provides the injected persistence capability used for
// session records and CSRF state correlation. Implementations are string
// key/value stores; callers never depend on a concrete medium, which makes
// the "storage unavailable" branch an explicit, injectable case.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("key not found")

// Storage is the minimal persistence contract: get/set/remove over string
// keys, plus an age-based sweep used by the cleanup janitor.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// DeleteOlderThan removes entries under the given key prefix whose last
	// write is before cutoff, returning the number removed.
	DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}
