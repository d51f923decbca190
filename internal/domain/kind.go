package domain

import "fmt"

// EntityKind is one of the content types this service migrates into.
type EntityKind int

const (
	KindUnknown EntityKind = iota
	KindCourseware
	KindInstructor
	KindDepartment
	KindTopic
	KindSubtopic
	KindSpeciality
	KindCoursePage
	KindCourseFile
	KindEmbeddedMedia
	KindMediaResource
	KindPDFResource
)

type kindInfo struct {
	name        string
	contentType string
}

var kinds = map[EntityKind]kindInfo{
	KindCourseware:    {"courseware", "autoCourseware"},
	KindInstructor:    {"instructor", "autoInstructor"},
	KindDepartment:    {"department", "department"},
	KindTopic:         {"topic", "topic"},
	KindSubtopic:      {"subtopic", "subtopic"},
	KindSpeciality:    {"speciality", "speciality"},
	KindCoursePage:    {"course_page", "coursePage"},
	KindCourseFile:    {"course_file", "courseFile"},
	KindEmbeddedMedia: {"embedded_media", "embeddedMedia"},
	KindMediaResource: {"media_resource", "mediaResource"},
	KindPDFResource:   {"pdf_resource", "pdfResource"},
}

// Kinds lists every known kind in declaration order.
func Kinds() []EntityKind {
	out := make([]EntityKind, 0, len(kinds))
	for k := KindCourseware; k <= KindPDFResource; k++ {
		out = append(out, k)
	}
	return out
}

func (k EntityKind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ContentType returns the content type id of the kind in the target space.
func (k EntityKind) ContentType() string {
	return kinds[k].contentType
}

func (k EntityKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// IsTag reports whether k is one of the three tag levels.
func (k EntityKind) IsTag() bool {
	return k == KindTopic || k == KindSubtopic || k == KindSpeciality
}

// ParseKind maps a kind name ("course_page") or content type id
// ("coursePage") back to its kind.
func ParseKind(s string) (EntityKind, error) {
	for k, info := range kinds {
		if s == info.name || s == info.contentType {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
