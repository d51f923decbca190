package httpx

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func TestSnippet(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"short text", 100, "short text"},
		{"", 100, ""},
		{"  trimmed  ", 100, "trimmed"},
		{"long text that should be truncated", 10, "long text ..."},
	}

	for _, tc := range testCases {
		result := snippet([]byte(tc.input), tc.max)
		if result != tc.expected {
			t.Errorf("snippet(%q, %d) = %q, want %q", tc.input, tc.max, result, tc.expected)
		}
	}
}

func TestHTTPError(t *testing.T) {
	err := &HTTPError{
		Method:     "GET",
		URL:        "https://ocw.mit.edu/courses/physics/physics.json",
		StatusCode: 404,
		Body:       []byte("Not Found"),
	}

	expected := "http error: GET https://ocw.mit.edu/courses/physics/physics.json status=404 body=Not Found"
	if err.Error() != expected {
		t.Errorf("HTTPError.Error() = %q, want %q", err.Error(), expected)
	}

	wrapped := fmt.Errorf("contentful: find: %w", err)
	if StatusCode(wrapped) != 404 {
		t.Errorf("Expected wrapped status 404, got %d", StatusCode(wrapped))
	}
	if !IsNotFound(wrapped) {
		t.Error("Expected IsNotFound to see through wrapping")
	}
	if IsNotFound(fmt.Errorf("plain")) {
		t.Error("Expected plain error not to be a 404")
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxAttempts != 6 {
		t.Errorf("Expected MaxAttempts to be 6, got %d", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 500*time.Millisecond {
		t.Errorf("Expected BaseDelay to be 500ms, got %v", cfg.BaseDelay)
	}
	if !cfg.Retry5xx {
		t.Error("Expected Retry5xx to be true")
	}
	for _, status := range []int{429, 408, 425, 500, 502, 503, 504} {
		if !cfg.retryable(status) {
			t.Errorf("Expected status %d to be retryable", status)
		}
	}
	for _, status := range []int{400, 404, 409, 422} {
		if cfg.retryable(status) {
			t.Errorf("Expected status %d not to be retryable", status)
		}
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := RetryConfig{}.withDefaults()
	if cfg.MaxAttempts != 6 {
		t.Errorf("Expected zero config to use defaults, got %d attempts", cfg.MaxAttempts)
	}

	cfg = RetryConfig{MaxAttempts: 2}.withDefaults()
	if cfg.MaxAttempts != 2 || cfg.BaseDelay <= 0 || cfg.RetryStatuses == nil {
		t.Errorf("Expected missing fields filled in, got %+v", cfg)
	}
}

func TestParseRetryAfter(t *testing.T) {
	testCases := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat), 0},
	}
	for _, tc := range testCases {
		resp := &http.Response{Header: http.Header{}}
		if tc.header != "" {
			resp.Header.Set("Retry-After", tc.header)
		}
		if got := ParseRetryAfter(resp); got != tc.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
	if got := ParseRetryAfter(resp); got <= 0 || got > time.Minute {
		t.Errorf("Expected a delay up to one minute, got %v", got)
	}
}

func TestGetDecodesBrotliAndGzip(t *testing.T) {
	payload := `[{"8-286-the-early-universe-fall-2013": {"title": "The Early Universe"}}]`

	var br, gz bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write([]byte(payload))
	bw.Close()
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte(payload))
	gw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != AcceptEncoding {
			t.Errorf("Expected Accept-Encoding %q, got %q", AcceptEncoding, r.Header.Get("Accept-Encoding"))
		}
		switch r.URL.Path {
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			w.Write(br.Bytes())
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			w.Write(gz.Bytes())
		default:
			w.Write([]byte(payload))
		}
	}))
	defer srv.Close()

	for _, p := range []string{"/br", "/gzip", "/plain"} {
		body, err := Get(context.Background(), srv.Client(), srv.URL+p, NoRetry())
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", p, err)
		}
		if string(body) != payload {
			t.Errorf("%s: expected decoded payload, got %q", p, body)
		}
	}
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.Write([]byte("not json"))
			return
		}
		w.Write([]byte(`{"depNo": "8", "id": "physics"}`))
	}))
	defer srv.Close()

	build := func(path string) func(context.Context) (*http.Request, error) {
		return func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
		}
	}

	var out struct {
		DepNo string `json:"depNo"`
		ID    string `json:"id"`
	}
	if err := DoJSON(context.Background(), srv.Client(), build("/ok"), &out, NoRetry()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.DepNo != "8" || out.ID != "physics" {
		t.Errorf("Unexpected decode %+v", out)
	}

	if err := DoJSON(context.Background(), srv.Client(), build("/bad"), &out, NoRetry()); err == nil {
		t.Error("Expected a parse error")
	}
	if err := DoJSON(context.Background(), srv.Client(), build("/ok"), nil, NoRetry()); err != nil {
		t.Errorf("Expected nil out to be accepted, got %v", err)
	}
}
