// Package store defines the entry store the migration writes into and an
// in-memory implementation used by tests and dry runs.
package store

import (
	"context"
	"errors"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/fields"
)

// ErrNotFound is returned by Find when the store has no such entry.
var ErrNotFound = domain.ErrLookupMiss

// ErrConflict is returned by Create for an identifier that is already taken,
// and by Save when the entry version is stale.
var ErrConflict = errors.New("entry conflict")

// Store is the target content backend. Implementations own persistence;
// callers only propose creations and updates.
type Store interface {
	Find(ctx context.Context, kind domain.EntityKind, id string) (*domain.Entry, error)
	Create(ctx context.Context, kind domain.EntityKind, id string, p fields.Payload) (*domain.Entry, error)
	// Save persists the current fields of e and bumps e.Version.
	Save(ctx context.Context, e *domain.Entry) error
	Publish(ctx context.Context, e *domain.Entry) error
}
