package resolve

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/store"
)

type recorded struct {
	kind    domain.EntityKind
	id      string
	outcome Outcome
}

type fakeRecorder struct {
	rows []recorded
}

func (f *fakeRecorder) Record(kind domain.EntityKind, id string, o Outcome, _ error) {
	f.rows = append(f.rows, recorded{kind, id, o})
}

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestResolveCreatesThenFinds(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	rec := &fakeRecorder{}
	r := New(mem, WithLogger(quiet()), WithRecorder(rec))

	raw := domain.Attributes{"uid": "p1", "title": "Syllabus", "type": "CourseSection"}
	e, err := r.Resolve(ctx, domain.KindCoursePage, "p1", raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "Syllabus", e.Field("title").TextValue())
	assert.Equal(t, "CourseSection", e.Field("coursePageType").TextValue())
	assert.Equal(t, 1, mem.Creates)

	again, err := r.Resolve(ctx, domain.KindCoursePage, "p1", raw, nil)
	require.NoError(t, err)
	assert.Equal(t, e.ID, again.ID)
	assert.Equal(t, 1, mem.Creates, "second resolve must not create")
	assert.Equal(t, 2, mem.Finds)

	assert.Equal(t, []recorded{
		{domain.KindCoursePage, "p1", Created},
		{domain.KindCoursePage, "p1", Found},
	}, rec.rows)
}

func TestResolveFreshResolverFindsExisting(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	_, err := New(mem, WithLogger(quiet())).Resolve(ctx, domain.KindTopic, "Science", domain.Attributes{"value": "Science"}, nil)
	require.NoError(t, err)

	_, err = New(mem, WithLogger(quiet())).Resolve(ctx, domain.KindTopic, "Science", domain.Attributes{"value": "Science"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Creates)
}

func TestResolveCachesSharedKinds(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	r := New(mem, WithLogger(quiet()), WithCacheSize(8))

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(ctx, domain.KindInstructor, "DrSaifRayyan", domain.Attributes{"name": "Saif Rayyan"}, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, mem.Finds, "instructors are served from the run cache")
	assert.Equal(t, 1, mem.Creates)
}

func TestResolveRecordsCacheHits(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	rec := &fakeRecorder{}
	r := New(mem, WithLogger(quiet()), WithRecorder(rec))

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(ctx, domain.KindTopic, "Science", domain.Attributes{"value": "Science"}, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []recorded{
		{domain.KindTopic, "Science", Created},
		{domain.KindTopic, "Science", Found},
		{domain.KindTopic, "Science", Found},
	}, rec.rows)
}

func TestResolveLogsUnmappedAttributes(t *testing.T) {
	var buf bytes.Buffer
	r := New(store.NewMemory(), WithLogger(log.New(&buf, "", 0)))

	_, err := r.Resolve(context.Background(), domain.KindTopic, "Science",
		domain.Attributes{"value": "Science", "weight": "3"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "WARN: topic Science: dropping unmapped attributes [weight]")
}

func TestResolveCreationFailureIsSoftAndNotRetried(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	rejected := errors.New("422 validation failed")
	mem.FailCreate = func(kind domain.EntityKind, id string) error { return rejected }

	var buf bytes.Buffer
	rec := &fakeRecorder{}
	r := New(mem, WithLogger(log.New(&buf, "", 0)), WithRecorder(rec))

	e, err := r.Resolve(ctx, domain.KindCourseFile, "f1", domain.Attributes{"title": "a.pdf"}, nil)
	assert.Nil(t, e)
	require.ErrorIs(t, err, domain.ErrCreationFailure)
	require.ErrorIs(t, err, rejected)
	assert.Contains(t, buf.String(), "creating course_file f1")
	assert.Contains(t, buf.String(), "issue creating course_file f1: 422 validation failed")

	_, err = r.Resolve(ctx, domain.KindCourseFile, "f1", domain.Attributes{"title": "a.pdf"}, nil)
	require.ErrorIs(t, err, domain.ErrCreationFailure)
	assert.Equal(t, 1, mem.Creates, "at most one creation attempt per run")
	assert.Equal(t, []recorded{
		{domain.KindCourseFile, "f1", Failed},
		{domain.KindCourseFile, "f1", Failed},
	}, rec.rows)
}

func TestResolveTransientLookupErrorMeansMissing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.FailFind = func(kind domain.EntityKind, id string) error { return errors.New("connection reset") }

	var buf bytes.Buffer
	r := New(mem, WithLogger(log.New(&buf, "", 0)))
	e, err := r.Resolve(ctx, domain.KindCourseFile, "f1", domain.Attributes{"title": "a.pdf"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "f1", e.ID)
	assert.Contains(t, buf.String(), "WARN: lookup course_file f1: connection reset")

	// The store still cannot be read, but the entry was created in this run.
	_, err = r.Resolve(ctx, domain.KindCourseFile, "f1", domain.Attributes{"title": "a.pdf"}, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, mem.Creates)
}

func TestResolveAttrsSkipsMissingKey(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	rec := &fakeRecorder{}
	r := New(mem, WithLogger(quiet()), WithRecorder(rec))

	_, err := r.ResolveAttrs(ctx, domain.KindCourseware, domain.Attributes{"master_course_number": "8.286"}, nil, nil)
	require.ErrorIs(t, err, domain.ErrMissingRequiredAttribute)
	assert.Equal(t, 0, mem.Finds)
	assert.Equal(t, []recorded{{domain.KindCourseware, "", Skipped}}, rec.rows)

	e, err := r.ResolveAttrs(ctx, domain.KindInstructor,
		domain.Attributes{"display_name": "Dr. Saif Rayyan"},
		domain.Attributes{"name": "Saif Rayyan", "title": "Dr"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "DrSaifRayyan", e.ID)
}

func TestResolveUnknownKind(t *testing.T) {
	r := New(store.NewMemory(), WithLogger(quiet()))
	_, err := r.Resolve(context.Background(), domain.KindUnknown, "x", nil, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestResolveDropsUnrepresentableValues(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	r := New(mem, WithLogger(quiet()))

	e, err := r.Resolve(ctx, domain.KindCoursePage, "p1",
		domain.Attributes{"title": "Syllabus"},
		map[string]any{"files": 3})
	require.NoError(t, err)
	assert.True(t, e.Field("files").IsAbsent())
	assert.Equal(t, "Syllabus", e.Field("title").TextValue())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "skipped", Skipped.String())
}
