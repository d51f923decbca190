// Package ocw reads the legacy OCW JSON: department listings, the
// departments directory and per-course master JSON.
package ocw

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ocw-contentful/internal/domain"
)

var (
	ErrBadShape       = errors.New("ocw: unexpected json shape")
	ErrCourseNotFound = errors.New("ocw: course not found")
)

// Department is one department listing keyed by OCW course uid.
type Department struct {
	URL     string
	Courses map[string]domain.Attributes
	// UIDs keeps the listing order.
	UIDs []string
}

// ParseDepartment decodes a department listing. OCW publishes it as a list
// of single-key objects ([{"<uid>": {...}}, ...]); an object already keyed
// by uid is accepted too.
func ParseDepartment(data []byte) (*Department, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("ocw: department json: %w", err)
	}

	d := &Department{Courses: map[string]domain.Attributes{}}
	add := func(uid string, rec any) error {
		m, ok := rec.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: course %q is %T", ErrBadShape, uid, rec)
		}
		if _, dup := d.Courses[uid]; !dup {
			d.UIDs = append(d.UIDs, uid)
		}
		d.Courses[uid] = domain.Attributes(m)
		return nil
	}

	switch t := v.(type) {
	case []any:
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok || len(m) != 1 {
				return nil, fmt.Errorf("%w: item %d is not a single-key object", ErrBadShape, i)
			}
			for uid, rec := range m {
				if err := add(uid, rec); err != nil {
					return nil, err
				}
			}
		}
	case map[string]any:
		for _, uid := range sortedKeys(t) {
			if err := add(uid, t[uid]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: department is %T", ErrBadShape, v)
	}
	return d, nil
}

func (d *Department) Name() string { return "ocw-department" }

// Course parses one course of the listing.
func (d *Department) Course(uid string) (*domain.CourseRecord, error) {
	datum, ok := d.Courses[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, uid)
	}
	return ParseCourse(uid, datum)
}

type section func(rec *domain.CourseRecord, v any) error

// sections are the nested parts of a course record; every other key is a
// plain attribute.
var sections = map[string]section{
	"faculty":               parseFaculty,
	"course_topics":         parseTopics,
	"media_resources":       parseMediaResources,
	"pdf_list":              parsePDFList,
	"course_pages":          parsePages,
	"course_files":          parseFiles,
	"course_embedded_media": parseEmbeddedMedia,
}

// ParseCourse turns one course datum into a CourseRecord.
func ParseCourse(uid string, datum map[string]any) (*domain.CourseRecord, error) {
	rec := &domain.CourseRecord{UID: uid, Attrs: domain.Attributes{}}
	for k, v := range datum {
		parse, ok := sections[k]
		if !ok {
			rec.Attrs[k] = v
			continue
		}
		if v == nil {
			continue
		}
		if err := parse(rec, v); err != nil {
			return nil, fmt.Errorf("ocw: course %s: %s: %w", uid, k, err)
		}
	}
	return rec, nil
}

func parseFaculty(rec *domain.CourseRecord, v any) error {
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%w: %T", ErrBadShape, v)
	}
	for _, item := range list {
		switch t := item.(type) {
		case string:
			rec.Faculty = append(rec.Faculty, t)
		case map[string]any:
			if name := domain.Attributes(t).String("directory_title", "title"); name != "" {
				rec.Faculty = append(rec.Faculty, name)
			}
		}
	}
	return nil
}

func parseTopics(rec *domain.CourseRecord, v any) error {
	list, err := records(v)
	if err != nil {
		return err
	}
	for _, m := range list {
		a := domain.Attributes(m)
		rec.Topics = append(rec.Topics, domain.TopicTriple{
			Topic:      a.String("topic"),
			Subtopic:   a.String("subtopic"),
			Speciality: a.String("speciality"),
		})
	}
	return nil
}

// parseMediaResources reads [{"<title>": {"path": ..., "YouTube": {"youtube_id": ...}}}].
func parseMediaResources(rec *domain.CourseRecord, v any) error {
	add := func(title string, inner any) {
		m, _ := inner.(map[string]any)
		a := domain.Attributes(m)
		rec.MediaResources = append(rec.MediaResources, domain.MediaResource{
			Title:   strings.TrimSpace(title),
			Path:    a.String("path"),
			VideoID: videoID(m),
		})
	}

	switch t := v.(type) {
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: media resource is %T", ErrBadShape, item)
			}
			for _, title := range sortedKeys(m) {
				add(title, m[title])
			}
		}
	case map[string]any:
		for _, title := range sortedKeys(t) {
			add(title, t[title])
		}
	default:
		return fmt.Errorf("%w: %T", ErrBadShape, v)
	}
	return nil
}

// videoID finds a youtube_id on the record or one level below it.
func videoID(m map[string]any) string {
	if id := domain.Attributes(m).String("youtube_id"); id != "" {
		return id
	}
	for _, k := range sortedKeys(m) {
		if inner, ok := m[k].(map[string]any); ok {
			if id := domain.Attributes(inner).String("youtube_id"); id != "" {
				return id
			}
		}
	}
	return ""
}

func parsePDFList(rec *domain.CourseRecord, v any) error {
	switch t := v.(type) {
	case map[string]any:
		for _, cat := range sortedKeys(t) {
			rec.PDFs = append(rec.PDFs, domain.PDFGroup{Category: cat, URLs: urlList(t[cat])})
		}
	case []any:
		rec.PDFs = append(rec.PDFs, domain.PDFGroup{URLs: urlList(t)})
	default:
		return fmt.Errorf("%w: %T", ErrBadShape, v)
	}
	return nil
}

func parsePages(rec *domain.CourseRecord, v any) error {
	list, err := records(v)
	if err != nil {
		return err
	}
	for _, m := range list {
		a := domain.Attributes(m)
		rec.Pages = append(rec.Pages, domain.PageRecord{UID: a.String("uid"), ParentUID: a.String("parent_uid"), Attrs: a})
	}
	return nil
}

func parseFiles(rec *domain.CourseRecord, v any) error {
	list, err := records(v)
	if err != nil {
		return err
	}
	for _, m := range list {
		a := domain.Attributes(m)
		rec.Files = append(rec.Files, domain.FileRecord{UID: a.String("uid"), ParentUID: a.String("parent_uid"), Attrs: a})
	}
	return nil
}

func parseEmbeddedMedia(rec *domain.CourseRecord, v any) error {
	list, err := records(v)
	if err != nil {
		return err
	}
	for _, m := range list {
		a := domain.Attributes(m)
		em := domain.EmbeddedMediaRecord{UID: a.String("uid"), ParentUID: a.String("parent_uid"), Attrs: a}
		items, _ := records(m["embedded_media"])
		for _, item := range items {
			ia := domain.Attributes(item)
			em.Media = append(em.Media, domain.EmbeddedMediaItem{
				ID:        ia.String("id"),
				Title:     ia.String("title"),
				MediaInfo: ia.String("media_info"),
			})
		}
		rec.EmbeddedMedia = append(rec.EmbeddedMedia, em)
	}
	return nil
}

// records accepts a list of objects or an object of objects (sorted by key).
func records(v any) ([]map[string]any, error) {
	var out []map[string]any
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T", ErrBadShape, i, item)
			}
			out = append(out, m)
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			m, ok := t[k].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %q is %T", ErrBadShape, k, t[k])
			}
			out = append(out, m)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadShape, v)
	}
	return out, nil
}

// urlList keeps the non-blank strings of a JSON list.
func urlList(v any) []string {
	list, _ := v.([]any)
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
