// Package resolve finds target entries or creates them exactly once.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/fields"
	"ocw-contentful/internal/ident"
	"ocw-contentful/internal/mappers"
	"ocw-contentful/internal/store"
)

// DefaultCacheSize bounds the run cache of shared entries.
const DefaultCacheSize = 4096

// Outcome is what happened to one entity during resolution.
type Outcome int

const (
	Found Outcome = iota
	Created
	Failed
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Created:
		return "created"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Recorder receives one call per resolved, created, failed or skipped entity.
type Recorder interface {
	Record(kind domain.EntityKind, id string, outcome Outcome, err error)
}

// Resolver is scoped to one migration run. Departments, instructors and tags
// are shared between courses, so their entries are kept in an LRU cache for
// the run; every other kind is looked up in the store each time.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	store    store.Store
	log      *log.Logger
	recorder Recorder

	cache *lru.Cache[string, *domain.Entry]
	// attempts remembers every create call of the run and its result.
	attempts map[string]error
}

type Option func(*Resolver)

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) { r.recorder = rec }
}

// WithCacheSize replaces the default run cache size.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		if c, err := lru.New[string, *domain.Entry](n); err == nil {
			r.cache = c
		}
	}
}

func New(s store.Store, opts ...Option) *Resolver {
	cache, _ := lru.New[string, *domain.Entry](DefaultCacheSize)
	r := &Resolver{
		store:    s,
		log:      log.Default(),
		cache:    cache,
		attempts: map[string]error{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func cacheable(kind domain.EntityKind) bool {
	return kind == domain.KindDepartment || kind == domain.KindInstructor || kind.IsTag()
}

func cacheKey(kind domain.EntityKind, id string) string {
	return kind.String() + "/" + id
}

// ResolveAttrs derives the identifier of kind from key and resolves it. A
// missing natural key skips the entity and returns an error wrapping
// domain.ErrMissingRequiredAttribute.
func (r *Resolver) ResolveAttrs(ctx context.Context, kind domain.EntityKind, key, raw domain.Attributes, additions map[string]any) (*domain.Entry, error) {
	id, err := ident.Derive(kind, key)
	if err != nil {
		r.log.Printf("WARN: skipping %s: %v", kind, err)
		r.record(kind, "", Skipped, err)
		return nil, err
	}
	return r.Resolve(ctx, kind, id, raw, additions)
}

// Resolve returns the entry (kind, id), creating it from raw and additions
// when the store does not have it. A lookup error of any sort means "not
// there yet". Creation is attempted at most once per (kind, id) per
// Resolver; a failed creation is logged and returned as a nil entry with an
// error wrapping domain.ErrCreationFailure.
func (r *Resolver) Resolve(ctx context.Context, kind domain.EntityKind, id string, raw domain.Attributes, additions map[string]any) (*domain.Entry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("resolve: %w: %v", domain.ErrUnknownKind, kind)
	}
	k := cacheKey(kind, id)

	if cacheable(kind) {
		if e, ok := r.cache.Get(k); ok {
			r.record(kind, id, Found, nil)
			return e, nil
		}
	}

	prev, attempted := r.attempts[k]
	if attempted && prev != nil {
		err := fmt.Errorf("resolve %s %s: %w: %w", kind, id, domain.ErrCreationFailure, prev)
		r.record(kind, id, Failed, err)
		return nil, err
	}

	e, err := r.store.Find(ctx, kind, id)
	if err == nil {
		r.remember(k, e)
		r.record(kind, id, Found, nil)
		return e, nil
	}
	if attempted {
		// Created earlier in this run; never create twice.
		return nil, fmt.Errorf("resolve %s %s: lookup after create: %w", kind, id, err)
	}
	if !errors.Is(err, domain.ErrLookupMiss) {
		r.log.Printf("WARN: lookup %s %s: %v", kind, id, err)
	}

	r.log.Printf("creating %s %s", kind, id)
	attrs, dropped, err := mappers.Normalize(kind, raw, additions)
	if err != nil {
		return nil, r.fail(kind, id, err)
	}
	if len(dropped) > 0 {
		r.log.Printf("WARN: %s %s: dropping unmapped attributes %v", kind, id, dropped)
	}
	payload, err := fields.Build(kind.ContentType(), attrs)
	if err != nil {
		// Unrepresentable values are left out of the payload.
		r.log.Printf("WARN: %s %s: %v", kind, id, err)
	}

	e, err = r.store.Create(ctx, kind, id, payload)
	r.attempts[k] = err
	if err != nil {
		return nil, r.fail(kind, id, err)
	}
	r.remember(k, e)
	r.record(kind, id, Created, nil)
	return e, nil
}

func (r *Resolver) fail(kind domain.EntityKind, id string, cause error) error {
	r.log.Printf("issue creating %s %s: %v", kind, id, cause)
	err := fmt.Errorf("resolve %s %s: %w: %w", kind, id, domain.ErrCreationFailure, cause)
	r.record(kind, id, Failed, err)
	return err
}

func (r *Resolver) remember(k string, e *domain.Entry) {
	if cacheable(e.Kind) {
		r.cache.Add(k, e)
	}
}

func (r *Resolver) record(kind domain.EntityKind, id string, o Outcome, err error) {
	if r.recorder != nil {
		r.recorder.Record(kind, id, o, err)
	}
}
