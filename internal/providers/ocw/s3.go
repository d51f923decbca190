package ocw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ocw-contentful/internal/domain"
)

const masterSuffix = "_master.json"

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Source reads the per-course master JSON from the OCW course data bucket,
// where every course lives under a prefix equal to its URL slug.
type S3Source struct {
	client *minio.Client
	bucket string
}

// NewS3Source builds a client; empty keys mean anonymous access to a public
// bucket.
func NewS3Source(cfg S3Config) (*S3Source, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("ocw: s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("ocw: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("ocw: init s3 client: %w", err)
	}
	return &S3Source{client: client, bucket: bucket}, nil
}

func (s *S3Source) Name() string { return "ocw-s3" }

// CoursePrefix extracts the bucket prefix from a course URL:
// https://ocw.mit.edu/courses/physics/8-06-quantum-physics-iii-spring-2005/
// -> 8-06-quantum-physics-iii-spring-2005. A bare slug is returned as is.
func CoursePrefix(courseURL string) (string, error) {
	u := strings.TrimSpace(courseURL)
	if u != "" && !strings.Contains(u, "/") {
		return u, nil
	}
	parts := strings.Split(u, "/")
	if len(parts) < 6 || parts[5] == "" {
		return "", fmt.Errorf("ocw: %q is not a course url", courseURL)
	}
	return parts[5], nil
}

// FetchCourse finds the *_master.json object of the course and parses it.
func (s *S3Source) FetchCourse(ctx context.Context, courseURL string) (*domain.CourseRecord, error) {
	prefix, err := CoursePrefix(courseURL)
	if err != nil {
		return nil, err
	}
	key, err := s.masterKey(ctx, prefix)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("ocw: get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, key)
		}
		return nil, fmt.Errorf("ocw: read %s: %w", key, err)
	}

	var datum map[string]any
	if err := json.Unmarshal(data, &datum); err != nil {
		return nil, fmt.Errorf("ocw: %s: %w", key, err)
	}
	return ParseCourse(prefix, datum)
}

func (s *S3Source) masterKey(ctx context.Context, prefix string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return "", fmt.Errorf("ocw: list %s: %w", prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, masterSuffix) {
			return obj.Key, nil
		}
	}
	return "", fmt.Errorf("%w: no %s under %s", ErrCourseNotFound, masterSuffix, prefix)
}
