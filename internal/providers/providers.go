package providers

import (
	"context"

	"ocw-contentful/internal/domain"
)

// CourseSource yields parsed OCW courses by reference: a course uid for a
// department listing, a course url or slug for the S3 bucket.
type CourseSource interface {
	Name() string
	FetchCourse(ctx context.Context, ref string) (*domain.CourseRecord, error)
}
