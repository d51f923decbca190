// Package mappers turns OCW source attributes into the field set of a target
// content type.
package mappers

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"ocw-contentful/internal/domain"
)

// Source attribute names injected by callers.
const (
	AttrTrackingTitle = "tracking_title"
	AttrCleanText     = "clean_text"
	AttrCourseware    = "courseware"
	AttrDepartment    = "department"
)

// Target field names that hold references.
const (
	FieldDepartment     = "department"
	FieldInstructors    = "instructors"
	FieldTopics         = "topics"
	FieldSubtopics      = "subtopics"
	FieldSpecialities   = "specialities"
	FieldCoursePages    = "coursePages"
	FieldCourseFiles    = "courseFiles"
	FieldMediaResources = "mediaResources"
	FieldPDFResources   = "pdfResources"
	FieldCourseware     = "courseware"
	FieldFiles          = "files"
	FieldEmbeddedMedia  = "embeddedMedia"
)

// Truncation limits of the content model.
const (
	MaxTechnicalLocation = 250
	MaxVideoID           = 200
)

type mapping struct {
	// deny lists source names that never reach the target.
	deny []string
	// aliases renames source names whose target field does not follow the
	// snake_case -> lowerCamel convention.
	aliases map[string]string
	fields  []string
}

var tagMapping = mapping{
	aliases: map[string]string{"value": "title"},
	fields:  []string{"title"},
}

var mappings = map[domain.EntityKind]mapping{
	domain.KindCourseware: {
		deny: []string{"uid", "course_owner", "department"},
		aliases: map[string]string{
			"title":       "courseTitle",
			"description": "plainTextDescription",
		},
		fields: []string{
			"trackingTitle", "courseTitle", "courseImagePath", "plainTextDescription",
			"courseUid", "term", "year", "level", "masterCourseNumber", "coursePath",
			"departmentNumber", "url",
			FieldDepartment, FieldInstructors, FieldTopics, FieldSubtopics, FieldSpecialities,
			FieldCoursePages, FieldCourseFiles, FieldMediaResources, FieldPDFResources,
		},
	},
	domain.KindDepartment: {
		aliases: map[string]string{"depNo": "departmentNumber", "id": "slug"},
		fields:  []string{"title", "departmentNumber", "slug"},
	},
	domain.KindInstructor: {
		deny: []string{"uid", "mit_id", "department"},
		fields: []string{
			"name", "title", "bio", "firstName", "lastName", "middleInitial",
			"suffix", "directoryTitle", FieldDepartment,
		},
	},
	domain.KindTopic:      tagMapping,
	domain.KindSubtopic:   tagMapping,
	domain.KindSpeciality: tagMapping,
	domain.KindCoursePage: {
		deny:    []string{"uid", "parent_uid", "text"},
		aliases: map[string]string{"type": "coursePageType"},
		fields: []string{
			"trackingTitle", "title", "url", "shortUrl", "coursePageType",
			"description", "cleanText", FieldCourseware, FieldFiles, FieldEmbeddedMedia,
		},
	},
	domain.KindCourseFile: {
		deny: []string{"uid", "parent_uid", "caption", "platform_requirements"},
		fields: []string{
			"trackingTitle", "title", "fileType", "fileLocation", "altText",
			"credit", "description", FieldCourseware,
		},
	},
	domain.KindEmbeddedMedia: {
		deny:    []string{"uid", "parent_uid", "embedded_media"},
		aliases: map[string]string{"id": "slug"},
		fields: []string{
			"trackingTitle", "title", "technicalLocation", "inlineEmbedId", "slug",
			"youtubeId", FieldCourseware,
		},
	},
	domain.KindMediaResource: {
		fields: []string{"trackingTitle", "title", "path", "youtubeId", FieldCourseware},
	},
	domain.KindPDFResource: {
		fields: []string{"trackingTitle", "title", "url", "category", FieldCourseware},
	},
}

// Fields returns the recognized target field names of kind, sorted.
func Fields(kind domain.EntityKind) ([]string, error) {
	m, ok := mappings[kind]
	if !ok {
		return nil, fmt.Errorf("mappers: %w: %v", domain.ErrUnknownKind, kind)
	}
	out := append([]string(nil), m.fields...)
	sort.Strings(out)
	return out, nil
}

// Normalize keeps the non-empty text attributes of raw, drops the ones the
// kind denies, merges additions (computed text and resolved references) and
// renames everything to target field names. Names the target does not know
// are left out and returned, sorted, as dropped.
func Normalize(kind domain.EntityKind, raw domain.Attributes, additions map[string]any) (out map[string]any, dropped []string, err error) {
	m, ok := mappings[kind]
	if !ok {
		return nil, nil, fmt.Errorf("mappers: %w: %v", domain.ErrUnknownKind, kind)
	}

	src := make(map[string]any, len(raw)+len(additions))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		src[k] = s
	}
	for _, k := range m.deny {
		delete(src, k)
	}
	for k, v := range additions {
		src[k] = v
	}

	known := make(map[string]bool, len(m.fields))
	for _, f := range m.fields {
		known[f] = true
	}

	out = make(map[string]any, len(src))
	for k, v := range src {
		name := m.target(k)
		if !known[name] {
			dropped = append(dropped, k)
			continue
		}
		out[name] = v
	}
	sort.Strings(dropped)
	return out, dropped, nil
}

// Denormalize maps a target field name back to its source attribute name.
func Denormalize(kind domain.EntityKind, field string) (string, error) {
	m, ok := mappings[kind]
	if !ok {
		return "", fmt.Errorf("mappers: %w: %v", domain.ErrUnknownKind, kind)
	}
	for src, dst := range m.aliases {
		if dst == field {
			return src, nil
		}
	}
	return SnakeCase(field), nil
}

func (m mapping) target(name string) string {
	if a, ok := m.aliases[name]; ok {
		return a
	}
	return LowerCamel(name)
}

// LowerCamel converts snake_case to lowerCamelCase: "course_image_path" ->
// "courseImagePath".
func LowerCamel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 || b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// SnakeCase is the inverse of LowerCamel for names made of lowercase words.
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
