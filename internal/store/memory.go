package store

import (
	"context"
	"fmt"
	"sync"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/fields"
)

// Memory is a Store backed by a map. It is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	entries   map[string]*domain.Entry
	published map[string]int

	// FailCreate, when set, is consulted before every create. A non-nil
	// error rejects the creation.
	FailCreate func(kind domain.EntityKind, id string) error
	// FailFind, when set, can inject transient lookup errors.
	FailFind func(kind domain.EntityKind, id string) error

	Finds     int
	Creates   int
	Saves     int
	Publishes int

	// Log records "create kind/id", "save kind/id" and "publish kind/id"
	// in call order.
	Log []string
}

func NewMemory() *Memory {
	return &Memory{
		entries:   map[string]*domain.Entry{},
		published: map[string]int{},
	}
}

func key(kind domain.EntityKind, id string) string {
	return kind.String() + "/" + id
}

func (m *Memory) Find(_ context.Context, kind domain.EntityKind, id string) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Finds++
	if m.FailFind != nil {
		if err := m.FailFind(kind, id); err != nil {
			return nil, err
		}
	}
	e, ok := m.entries[key(kind, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return e.Clone(), nil
}

func (m *Memory) Create(_ context.Context, kind domain.EntityKind, id string, p fields.Payload) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Creates++
	m.Log = append(m.Log, "create "+key(kind, id))
	if m.FailCreate != nil {
		if err := m.FailCreate(kind, id); err != nil {
			return nil, err
		}
	}
	if p.ContentTypeID != kind.ContentType() {
		return nil, fmt.Errorf("content type %q does not match %s", p.ContentTypeID, kind)
	}
	k := key(kind, id)
	if _, ok := m.entries[k]; ok {
		return nil, fmt.Errorf("%w: %s already exists", ErrConflict, k)
	}

	e := &domain.Entry{Kind: kind, ID: id, Version: 1, Fields: p.Values()}
	m.entries[k] = e
	return e.Clone(), nil
}

func (m *Memory) Save(_ context.Context, e *domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Saves++
	k := key(e.Kind, e.ID)
	m.Log = append(m.Log, "save "+k)
	cur, ok := m.entries[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	if cur.Version != e.Version {
		return fmt.Errorf("%w: %s version %d, have %d", ErrConflict, k, e.Version, cur.Version)
	}

	e.Version++
	m.entries[k] = e.Clone()
	return nil
}

func (m *Memory) Publish(_ context.Context, e *domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Publishes++
	k := key(e.Kind, e.ID)
	m.Log = append(m.Log, "publish "+k)
	cur, ok := m.entries[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	m.published[k] = cur.Version
	return nil
}

// Get returns a snapshot of a stored entry, or nil.
func (m *Memory) Get(kind domain.EntityKind, id string) *domain.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key(kind, id)].Clone()
}

// Count returns how many entries of kind are stored.
func (m *Memory) Count(kind domain.EntityKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// IsPublished reports whether the entry was published at its current version.
func (m *Memory) IsPublished(kind domain.EntityKind, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(kind, id)
	v, ok := m.published[k]
	return ok && m.entries[k] != nil && m.entries[k].Version == v
}
