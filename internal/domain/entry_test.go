package domain

import (
	"errors"
	"testing"
)

func TestTextSuppressesEmpty(t *testing.T) {
	if v := Text(""); !v.IsAbsent() {
		t.Errorf("Expected Text(\"\") to be absent, got %s", v.Kind())
	}
	if v := Text("Physics"); v.Kind() != FieldText || v.TextValue() != "Physics" {
		t.Errorf("Expected text 'Physics', got %s %q", v.Kind(), v.TextValue())
	}
}

func TestMultiRefKeepsOrderAndEmptyList(t *testing.T) {
	v := MultiRef([]string{"b", "a", "b"})
	got := v.RefIDs()
	if len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "b" {
		t.Errorf("Expected [b a b], got %v", got)
	}

	empty := MultiRef(nil)
	if empty.Kind() != FieldMultiRef {
		t.Errorf("Expected empty list to stay a multi ref, got %s", empty.Kind())
	}
	if len(empty.RefIDs()) != 0 {
		t.Errorf("Expected no ids, got %v", empty.RefIDs())
	}
}

func TestEntrySetAndClone(t *testing.T) {
	e := &Entry{Kind: KindCoursePage, ID: "p1"}
	e.Set("title", Text("Syllabus"))
	e.Set("files", MultiRef([]string{"f1"}))
	e.Set("title", Absent())

	if _, ok := e.Fields["title"]; ok {
		t.Error("Expected absent value to remove the field")
	}

	c := e.Clone()
	c.Fields["files"] = MultiRef([]string{"f2"})
	if e.Field("files").RefIDs()[0] != "f1" {
		t.Error("Expected clone to be independent of the original")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
		got, err = ParseKind(k.ContentType())
		if err != nil || got.ContentType() != k.ContentType() {
			t.Errorf("ParseKind(%q) = %v, %v", k.ContentType(), got, err)
		}
	}

	_, err := ParseKind("syllabus")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestAttributesString(t *testing.T) {
	a := Attributes{"year": float64(2013), "term": " Fall ", "blank": "  ", "nested": map[string]any{}}
	if a.String("year") != "2013" {
		t.Errorf("Expected '2013', got %q", a.String("year"))
	}
	if a.String("term") != "Fall" {
		t.Errorf("Expected 'Fall', got %q", a.String("term"))
	}
	if a.String("blank", "term") != "Fall" {
		t.Errorf("Expected fallback to 'Fall', got %q", a.String("blank", "term"))
	}
	if a.String("nested") != "" {
		t.Errorf("Expected empty string for nested value, got %q", a.String("nested"))
	}
}
