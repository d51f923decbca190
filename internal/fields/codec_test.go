package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocw-contentful/internal/domain"
)

func TestEncode(t *testing.T) {
	page := &domain.Entry{Kind: domain.KindCoursePage, ID: "p1"}
	other := &domain.Entry{Kind: domain.KindCoursePage, ID: "p2"}

	tests := []struct {
		name string
		in   any
		kind domain.FieldKind
		ids  []string
		text string
	}{
		{name: "text", in: "Syllabus", kind: domain.FieldText, text: "Syllabus"},
		{name: "empty text", in: "", kind: domain.FieldAbsent},
		{name: "entry", in: page, kind: domain.FieldSingleRef, ids: []string{"p1"}},
		{name: "nil entry", in: (*domain.Entry)(nil), kind: domain.FieldAbsent},
		{name: "entries keep order and duplicates", in: []*domain.Entry{other, page, other}, kind: domain.FieldMultiRef, ids: []string{"p2", "p1", "p2"}},
		{name: "unresolved members skipped", in: []*domain.Entry{nil, page}, kind: domain.FieldMultiRef, ids: []string{"p1"}},
		{name: "number", in: 2013.0, kind: domain.FieldAbsent},
		{name: "bool", in: true, kind: domain.FieldAbsent},
		{name: "nil", in: nil, kind: domain.FieldAbsent},
		{name: "map", in: map[string]any{"a": "b"}, kind: domain.FieldAbsent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Encode(tc.in)
			assert.Equal(t, tc.kind, got.Kind())
			assert.Equal(t, tc.text, got.TextValue())
			if tc.ids != nil {
				assert.Equal(t, tc.ids, got.RefIDs())
			}
		})
	}
}

func TestBuildOmitsAbsentAndReportsUnrepresentable(t *testing.T) {
	p, err := Build("coursePage", map[string]any{
		"title":       "Syllabus",
		"description": "",
		"order":       3,
		"courseware":  &domain.Entry{ID: "OCW__8.286__2013__Fall"},
	})
	require.ErrorIs(t, err, domain.ErrUnrepresentableField)
	assert.Contains(t, err.Error(), "order")

	assert.Equal(t, "coursePage", p.ContentTypeID)
	assert.Len(t, p.Fields, 2)
	assert.NotContains(t, p.Fields, "description")
	assert.Equal(t, "Syllabus", p.Fields["title"][DefaultLocale].TextValue())
	assert.Equal(t, "OCW__8.286__2013__Fall", p.Values()["courseware"].RefID())
}

func TestBuildNeverWritesEmptyText(t *testing.T) {
	p, err := Build("topic", map[string]any{"title": ""})
	require.NoError(t, err)
	assert.Empty(t, p.Fields)
}
