// Package storage holds the profile-scoped local state of a storefront
// visitor: current identity, guest cart snapshot, auth token and recently
// viewed products. Everything here is a best-effort cache; the remote API is
// the source of truth.
//
// A profile is the unit a browser profile used to be: one visitor's
// persistent key space. Stores are interchangeable: memory for tests, SQLite
// for single-node deployments, Redis when several nodes share visitors.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a profile-scoped byte store.
type Store interface {
	// Get returns the value for key in profile or ErrNotFound.
	Get(ctx context.Context, profile, key string) ([]byte, error)

	// Put stores value under key in profile, replacing any previous value.
	Put(ctx context.Context, profile, key string, value []byte) error

	// Delete removes keys from profile. Missing keys are not an error.
	Delete(ctx context.Context, profile string, keys ...string) error

	// Close releases the underlying connection.
	Close() error
}
