package domain

import (
	"fmt"
	"strings"
)

// Attributes is an untyped source record as decoded from OCW JSON.
type Attributes map[string]any

// String returns the attribute as trimmed text. Numbers are formatted,
// anything else yields "".
func (a Attributes) String(keys ...string) string {
	for _, k := range keys {
		v, ok := a[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64, int, int64:
			return fmt.Sprintf("%v", t)
		}
	}
	return ""
}

// CourseRecord is one parsed OCW course.
type CourseRecord struct {
	UID   string
	Attrs Attributes

	Faculty        []string
	Topics         []TopicTriple
	MediaResources []MediaResource
	PDFs           []PDFGroup

	Pages         []PageRecord
	Files         []FileRecord
	EmbeddedMedia []EmbeddedMediaRecord
}

// DepartmentNumber is the OCW department number ("8" for Physics).
func (c *CourseRecord) DepartmentNumber() string {
	return c.Attrs.String("department_number")
}

func (c *CourseRecord) MasterCourseNumber() string {
	return c.Attrs.String("master_course_number")
}

func (c *CourseRecord) Title() string {
	return c.Attrs.String("title", "course_title")
}

// TopicTriple is one row of the old Topic -> Subtopic -> Speciality hierarchy.
type TopicTriple struct {
	Topic      string
	Subtopic   string
	Speciality string
}

// MediaResource is a course-level video, usually hosted on YouTube.
type MediaResource struct {
	Title   string
	Path    string
	VideoID string
}

// PDFGroup is one category of the course pdf_list.
type PDFGroup struct {
	Category string
	URLs     []string
}

type PageRecord struct {
	UID       string
	ParentUID string
	Attrs     Attributes
}

type FileRecord struct {
	UID       string
	ParentUID string
	Attrs     Attributes
}

// EmbeddedMediaRecord is an inline player embedded in a course page.
type EmbeddedMediaRecord struct {
	UID       string
	ParentUID string
	Attrs     Attributes
	Media     []EmbeddedMediaItem
}

type EmbeddedMediaItem struct {
	ID        string
	Title     string
	MediaInfo string
}

// YouTubeStreamID returns the media_info of the "Video-YouTube-Stream"
// item, which is the YouTube video id.
func (e EmbeddedMediaRecord) YouTubeStreamID() string {
	for _, m := range e.Media {
		if m.ID == "Video-YouTube-Stream" {
			return strings.TrimSpace(m.MediaInfo)
		}
	}
	return ""
}
