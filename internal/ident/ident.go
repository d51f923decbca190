// Package ident derives stable target identifiers from source attributes.
package ident

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ocw-contentful/internal/domain"
)

// MaxLength is the identifier ceiling enforced by the target space.
const MaxLength = 64

const coursewareSep = "__"

// Attribute names read by Derive.
const (
	AttrMasterCourseNumber = "master_course_number"
	AttrYear               = "year"
	AttrTerm               = "term"
	AttrUID                = "uid"
	AttrDisplayName        = "display_name"
	AttrValue              = "value"
	AttrID                 = "id"
	AttrTitle              = "title"
	AttrURL                = "url"
	AttrVideoID            = "youtube_id"
)

type strategy func(attrs domain.Attributes) (string, error)

var strategies = map[domain.EntityKind]strategy{
	domain.KindCourseware:    courseware,
	domain.KindInstructor:    instructor,
	domain.KindDepartment:    department,
	domain.KindTopic:         tag,
	domain.KindSubtopic:      tag,
	domain.KindSpeciality:    tag,
	domain.KindCoursePage:    sourceUID,
	domain.KindCourseFile:    sourceUID,
	domain.KindEmbeddedMedia: sourceUID,
	domain.KindPDFResource:   pdfResource,
	domain.KindMediaResource: mediaResource,
}

// Derive computes the identifier of an entity of the given kind. It is a
// pure function of kind and attrs.
func Derive(kind domain.EntityKind, attrs domain.Attributes) (string, error) {
	fn, ok := strategies[kind]
	if !ok {
		return "", fmt.Errorf("ident: %w: %v", domain.ErrUnknownKind, kind)
	}
	id, err := fn(attrs)
	if err != nil {
		return "", fmt.Errorf("ident: %s: %w", kind, err)
	}
	id = bound(id)
	if id == "" {
		return "", fmt.Errorf("ident: %s: %w: identifier is empty", kind, domain.ErrMissingRequiredAttribute)
	}
	return id, nil
}

func courseware(attrs domain.Attributes) (string, error) {
	parts := []string{"OCW"}
	for _, k := range []string{AttrMasterCourseNumber, AttrYear, AttrTerm} {
		v, err := require(attrs, k)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, coursewareSep), nil
}

func instructor(attrs domain.Attributes) (string, error) {
	name, err := require(attrs, AttrDisplayName)
	if err != nil {
		return "", err
	}
	return Camel(name), nil
}

func tag(attrs domain.Attributes) (string, error) {
	v, err := require(attrs, AttrValue)
	if err != nil {
		return "", err
	}
	return Camel(truncate(v, MaxLength)), nil
}

func department(attrs domain.Attributes) (string, error) {
	if id := attrs.String(AttrID); id != "" {
		return id, nil
	}
	title, err := require(attrs, AttrTitle)
	if err != nil {
		return "", err
	}
	return Camel(title), nil
}

func sourceUID(attrs domain.Attributes) (string, error) {
	return require(attrs, AttrUID)
}

func pdfResource(attrs domain.Attributes) (string, error) {
	raw, err := require(attrs, AttrURL)
	if err != nil {
		return "", err
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(strings.TrimRight(p, "/"))
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: %s has no file name", domain.ErrMissingRequiredAttribute, AttrURL)
	}
	return sanitizeID(name), nil
}

func mediaResource(attrs domain.Attributes) (string, error) {
	v, err := require(attrs, AttrVideoID)
	if err != nil {
		return "", err
	}
	return sanitizeID(v), nil
}

func require(attrs domain.Attributes, key string) (string, error) {
	v := attrs.String(key)
	if v == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingRequiredAttribute, key)
	}
	return v, nil
}

// Camel title-cases s word by word and keeps only ASCII letters and digits:
// "Dr. Saif Rayyan" -> "DrSaifRayyan". Accents are folded first, so
// "José Gómez" -> "JoseGomez". A letter is upper-cased when the rune before
// it is not a letter, so "8th grade" becomes "8ThGrade".
func Camel(s string) string {
	if folded, _, err := transform.String(foldAccents(), s); err == nil {
		s = folded
	}
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := r < unicode.MaxASCII && unicode.IsLetter(r)
		switch {
		case isLetter && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case isLetter:
			b.WriteRune(unicode.ToLower(r))
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}

// foldAccents strips combining marks after canonical decomposition.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// sanitizeID keeps the characters allowed in entry ids.
func sanitizeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func bound(id string) string {
	return truncate(strings.TrimSpace(id), MaxLength)
}
