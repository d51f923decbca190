// Package httpx is the shared HTTP transport: retries with backoff on
// transient failures, compressed body decoding and typed HTTP errors.
package httpx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// AcceptEncoding is sent by Get; OCW serves its JSON brotli compressed.
const AcceptEncoding = "br, gzip"

// HTTPError carries the status and body of a non-2xx response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 900))
}

// StatusCode returns the status of an *HTTPError anywhere in err's chain,
// or 0.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// RetryConfig controls retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Retry5xx retries any 5xx.
	Retry5xx bool

	// RetryStatuses are extra statuses to retry (429, 408, ...).
	RetryStatuses map[int]bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 6,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    20 * time.Second,
		Retry5xx:    true,
		RetryStatuses: map[int]bool{
			http.StatusTooManyRequests: true,
			http.StatusRequestTimeout:  true,
			http.StatusTooEarly:        true,
		},
	}
}

// NoRetry performs a single attempt.
func NoRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, RetryStatuses: map[int]bool{}}
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		return def
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = def.RetryStatuses
	}
	return cfg
}

func (cfg RetryConfig) retryable(code int) bool {
	return cfg.RetryStatuses[code] || (cfg.Retry5xx && code >= 500 && code <= 599)
}

// DoWithRetry executes the request built by buildReq, retrying network
// errors and retryable statuses. The body is always read in full (and
// decompressed) so connections can be reused.
func DoWithRetry(
	ctx context.Context,
	client *http.Client,
	buildReq func(context.Context) (*http.Request, error),
	cfg RetryConfig,
) (*http.Response, []byte, error) {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		resp, body, wait, err := once(ctx, client, buildReq, cfg)
		if err == nil {
			return resp, body, nil
		}
		if wait < 0 || attempt == cfg.MaxAttempts {
			return resp, body, err
		}
		lastErr = err
		if err := sleepBackoff(ctx, attempt, cfg.BaseDelay, cfg.MaxDelay, wait); err != nil {
			return nil, nil, err
		}
	}
	if lastErr == nil {
		lastErr = errors.New("httpx: request failed")
	}
	return nil, nil, lastErr
}

// once runs one attempt. wait < 0 means the error is final; otherwise it
// is the server requested delay (0 for plain backoff).
func once(
	ctx context.Context,
	client *http.Client,
	buildReq func(context.Context) (*http.Request, error),
	cfg RetryConfig,
) (*http.Response, []byte, time.Duration, error) {
	req, err := buildReq(ctx)
	if err != nil {
		return nil, nil, -1, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, retryWait(isRetryableNetErr(err)), err
	}

	body, err := readBody(resp)
	if err != nil {
		return resp, body, retryWait(isRetryableNetErr(err)), err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, body, 0, nil
	}

	herr := &HTTPError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
	if !cfg.retryable(resp.StatusCode) {
		return resp, body, -1, herr
	}
	return resp, body, ParseRetryAfter(resp), herr
}

func retryWait(retry bool) time.Duration {
	if retry {
		return 0
	}
	return -1
}

// readBody reads and closes the body, undoing a br or gzip Content-Encoding.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("httpx: gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

func sleepBackoff(ctx context.Context, attempt int, base, max time.Duration, retryAfter time.Duration) error {
	sleep := retryAfter
	if sleep <= 0 {
		sleep = base * time.Duration(1<<(attempt-1))
		if sleep > max {
			sleep = max
		}
		sleep += time.Duration(rand.Int63n(int64(base)/2 + 1))
	}

	t := time.NewTimer(sleep)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isRetryableNetErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "broken pipe", "eof"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// ParseRetryAfter parses a Retry-After header given in seconds or as an HTTP
// date. It returns 0 when the header is missing or invalid.
func ParseRetryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Get fetches url with retries and returns the decoded body.
func Get(ctx context.Context, client *http.Client, url string, cfg RetryConfig) ([]byte, error) {
	_, body, err := DoWithRetry(ctx, client, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", "application/json")
		r.Header.Set("Accept-Encoding", AcceptEncoding)
		return r, nil
	}, cfg)
	return body, err
}

// DoJSON is DoWithRetry followed by a JSON decode of the body into out.
func DoJSON(
	ctx context.Context,
	client *http.Client,
	buildReq func(context.Context) (*http.Request, error),
	out any,
	cfg RetryConfig,
) error {
	_, body, err := DoWithRetry(ctx, client, buildReq, cfg)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json parse error: %w body=%s", err, snippet(body, 900))
	}
	return nil
}
