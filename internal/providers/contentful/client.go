// Package contentful is the entry store backed by the Contentful Content
// Management API.
package contentful

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/fields"
	"ocw-contentful/internal/httpx"
	"ocw-contentful/internal/store"
)

const (
	DefaultBaseURL     = "https://api.contentful.com"
	DefaultEnvironment = "master"

	// DefaultRateLimit stays under the management API per-space limit.
	DefaultRateLimit = 7

	mediaType = "application/vnd.contentful.management.v1+json"
)

// Client implements store.Store. Entries are addressed by their derived id,
// so creation is a PUT to /entries/{id}. A space has a single id namespace,
// so kinds whose ids come from free text are stored under a content type
// prefix: subtopic "Biology" is entry "subtopic.Biology". Entries returned
// by the client carry the stored id.
//
// Fields this package cannot represent (numbers, rich text, other locales)
// are kept from the last response and written back unchanged on Save.
type Client struct {
	BaseURL     string
	SpaceID     string
	Environment string
	Token       string
	HTTP        *http.Client
	Retry       httpx.RetryConfig
	// Limiter paces every attempt, retries included. Nil disables pacing.
	Limiter *rate.Limiter

	mu     sync.Mutex
	remote map[string]map[string]map[string]json.RawMessage
}

var _ store.Store = (*Client)(nil)

func New(baseURL, spaceID, environment, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if environment == "" {
		environment = DefaultEnvironment
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		SpaceID:     spaceID,
		Environment: environment,
		Token:       token,
		HTTP:        &http.Client{Timeout: 60 * time.Second},
		Retry:       httpx.DefaultRetryConfig(),
		Limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		remote:      map[string]map[string]map[string]json.RawMessage{},
	}
}

// maxEntryID is the longest entry id the management API accepts.
const maxEntryID = 64

// scoped reports whether ids of kind are derived from free text and may
// collide with ids of another kind.
func scoped(kind domain.EntityKind) bool {
	return kind == domain.KindDepartment || kind == domain.KindInstructor || kind.IsTag()
}

// EntryID maps the derived id of kind to its id in the space. Prefixed ids
// that run past maxEntryID end in a hash of the full id.
func EntryID(kind domain.EntityKind, id string) string {
	if !scoped(kind) {
		return id
	}
	full := kind.ContentType() + "." + id
	if len(full) <= maxEntryID {
		return full
	}
	sum := sha1.Sum([]byte(full))
	tail := "." + hex.EncodeToString(sum[:4])
	return full[:maxEntryID-len(tail)] + tail
}

func (c *Client) entryURL(id string) string {
	return fmt.Sprintf("%s/spaces/%s/environments/%s/entries/%s",
		c.BaseURL, url.PathEscape(c.SpaceID), url.PathEscape(c.Environment), url.PathEscape(id))
}

func (c *Client) Find(ctx context.Context, kind domain.EntityKind, id string) (*domain.Entry, error) {
	id = EntryID(kind, id)
	var w wireEntry
	err := c.do(ctx, http.MethodGet, c.entryURL(id), nil, nil, &w, c.Retry)
	if httpx.IsNotFound(err) {
		return nil, fmt.Errorf("contentful: %s %s: %w", kind, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("contentful: find %s %s: %w", kind, id, err)
	}
	if ct := w.contentType(); ct != kind.ContentType() {
		return nil, fmt.Errorf("contentful: %s is a %s, not %s: %w", id, ct, kind.ContentType(), store.ErrConflict)
	}
	return c.remember(kind, &w), nil
}

// Create makes a single attempt. When its response is lost the entry may
// still have been written, so a failure other than a conflict is followed by
// one lookup.
func (c *Client) Create(ctx context.Context, kind domain.EntityKind, id string, p fields.Payload) (*domain.Entry, error) {
	id = EntryID(kind, id)
	body := map[string]map[string]json.RawMessage{}
	for name, loc := range p.Fields {
		body[name] = map[string]json.RawMessage{}
		for locale, fv := range loc {
			raw, err := encodeValue(fv)
			if err != nil {
				return nil, fmt.Errorf("contentful: create %s %s: %s: %w", kind, id, name, err)
			}
			body[name][locale] = raw
		}
	}

	headers := map[string]string{"X-Contentful-Content-Type": p.ContentTypeID}
	var w wireEntry
	err := c.do(ctx, http.MethodPut, c.entryURL(id), headers, wireFields{Fields: body}, &w, httpx.NoRetry())
	if err == nil {
		return c.remember(kind, &w), nil
	}
	err = conflict(err)
	if !errors.Is(err, store.ErrConflict) && ctx.Err() == nil {
		var got wireEntry
		if ferr := c.do(ctx, http.MethodGet, c.entryURL(id), nil, nil, &got, httpx.NoRetry()); ferr == nil && got.contentType() == kind.ContentType() {
			return c.remember(kind, &got), nil
		}
	}
	return nil, fmt.Errorf("contentful: create %s %s: %w", kind, id, err)
}

func (c *Client) Save(ctx context.Context, e *domain.Entry) error {
	body, err := c.merge(e)
	if err != nil {
		return fmt.Errorf("contentful: save %s %s: %w", e.Kind, e.ID, err)
	}

	headers := map[string]string{"X-Contentful-Version": strconv.Itoa(e.Version)}
	var w wireEntry
	if err := c.do(ctx, http.MethodPut, c.entryURL(e.ID), headers, wireFields{Fields: body}, &w, c.Retry); err != nil {
		return fmt.Errorf("contentful: save %s %s: %w", e.Kind, e.ID, conflict(err))
	}
	c.remember(e.Kind, &w)
	e.Version = w.Sys.Version
	return nil
}

func (c *Client) Publish(ctx context.Context, e *domain.Entry) error {
	headers := map[string]string{"X-Contentful-Version": strconv.Itoa(e.Version)}
	var w wireEntry
	if err := c.do(ctx, http.MethodPut, c.entryURL(e.ID)+"/published", headers, nil, &w, c.Retry); err != nil {
		return fmt.Errorf("contentful: publish %s %s: %w", e.Kind, e.ID, conflict(err))
	}
	e.Version = w.Sys.Version
	return nil
}

func (c *Client) do(ctx context.Context, method, u string, headers map[string]string, in, out any, retry httpx.RetryConfig) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}
	return httpx.DoJSON(ctx, c.HTTP, func(ctx context.Context) (*http.Request, error) {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		r, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Authorization", "Bearer "+c.Token)
		r.Header.Set("Accept", "application/json")
		r.Header.Set("Accept-Encoding", httpx.AcceptEncoding)
		if payload != nil {
			r.Header.Set("Content-Type", mediaType)
		}
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return r, nil
	}, out, retry)
}

func conflict(err error) error {
	if httpx.StatusCode(err) == http.StatusConflict {
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	}
	return err
}

// remember keeps the raw fields of w and returns its domain view.
func (c *Client) remember(kind domain.EntityKind, w *wireEntry) *domain.Entry {
	e := &domain.Entry{Kind: kind, ID: w.Sys.ID, Version: w.Sys.Version}
	for name, loc := range w.Fields {
		raw, ok := loc[fields.DefaultLocale]
		if !ok {
			continue
		}
		if fv, ok := decodeValue(raw); ok {
			e.Set(name, fv)
		}
	}

	c.mu.Lock()
	c.remote[w.Sys.ID] = w.Fields
	c.mu.Unlock()
	return e
}

// merge lays the fields of e over the last known remote fields. A field
// this package can decode but e no longer holds is removed for the default
// locale.
func (c *Client) merge(e *domain.Entry) (map[string]map[string]json.RawMessage, error) {
	c.mu.Lock()
	prev := c.remote[e.ID]
	c.mu.Unlock()

	out := map[string]map[string]json.RawMessage{}
	for name, loc := range prev {
		cp := map[string]json.RawMessage{}
		for locale, raw := range loc {
			if _, ok := decodeValue(raw); ok && locale == fields.DefaultLocale {
				continue
			}
			cp[locale] = raw
		}
		if len(cp) > 0 {
			out[name] = cp
		}
	}
	for name, fv := range e.Fields {
		raw, err := encodeValue(fv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if out[name] == nil {
			out[name] = map[string]json.RawMessage{}
		}
		out[name][fields.DefaultLocale] = raw
	}
	return out, nil
}
