package ocw

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/httpx"
)

const (
	DefaultBaseURL       = "https://ocw.mit.edu"
	DefaultDirectoryPath = "/courses/find-by-number/departments.json"
)

// HTTPSource reads department listings and the departments directory from
// the OCW site.
type HTTPSource struct {
	BaseURL string
	HTTP    *http.Client
	Retry   httpx.RetryConfig
}

func NewHTTPSource(baseURL string) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
		Retry:   httpx.DefaultRetryConfig(),
	}
}

// DepartmentURL is the listing of a department slug:
// https://ocw.mit.edu/courses/biology/biology.json
func (s *HTTPSource) DepartmentURL(slug string) string {
	return fmt.Sprintf("%s/courses/%s/%s.json", s.BaseURL, slug, slug)
}

func (s *HTTPSource) FetchDepartment(ctx context.Context, url string) (*Department, error) {
	body, err := httpx.Get(ctx, s.HTTP, url, s.Retry)
	if err != nil {
		return nil, fmt.Errorf("ocw: fetch department %s: %w", url, err)
	}
	d, err := ParseDepartment(body)
	if err != nil {
		return nil, fmt.Errorf("ocw: %s: %w", url, err)
	}
	d.URL = url
	return d, nil
}

func (s *HTTPSource) FetchDirectory(ctx context.Context) (*Directory, error) {
	url := s.BaseURL + DefaultDirectoryPath
	body, err := httpx.Get(ctx, s.HTTP, url, s.Retry)
	if err != nil {
		return nil, fmt.Errorf("ocw: fetch directory: %w", err)
	}
	return ParseDirectory(body)
}

// FetchCourse parses one course of an already fetched listing.
func (d *Department) FetchCourse(_ context.Context, uid string) (*domain.CourseRecord, error) {
	return d.Course(uid)
}
