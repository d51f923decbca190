package domain

// FieldKind tags the variant held by a FieldValue.
type FieldKind int

const (
	FieldAbsent FieldKind = iota
	FieldText
	FieldSingleRef
	FieldMultiRef
)

func (k FieldKind) String() string {
	switch k {
	case FieldText:
		return "text"
	case FieldSingleRef:
		return "single_ref"
	case FieldMultiRef:
		return "multi_ref"
	default:
		return "absent"
	}
}

// FieldValue is a typed field of a target entry. The zero value is Absent.
type FieldValue struct {
	kind FieldKind
	text string
	refs []string
}

func Absent() FieldValue { return FieldValue{} }

// Text returns an Absent value for "" so empty strings never reach the store.
func Text(s string) FieldValue {
	if s == "" {
		return FieldValue{}
	}
	return FieldValue{kind: FieldText, text: s}
}

func SingleRef(id string) FieldValue {
	if id == "" {
		return FieldValue{}
	}
	return FieldValue{kind: FieldSingleRef, refs: []string{id}}
}

// MultiRef keeps order and duplicates. A nil or empty list is still a
// MultiRef (an empty link list), not Absent.
func MultiRef(ids []string) FieldValue {
	out := make([]string, len(ids))
	copy(out, ids)
	return FieldValue{kind: FieldMultiRef, refs: out}
}

func (v FieldValue) Kind() FieldKind { return v.kind }
func (v FieldValue) IsAbsent() bool  { return v.kind == FieldAbsent }
func (v FieldValue) TextValue() string {
	return v.text
}

// RefID returns the target of a SingleRef.
func (v FieldValue) RefID() string {
	if v.kind != FieldSingleRef {
		return ""
	}
	return v.refs[0]
}

// RefIDs returns a copy of the targets of a SingleRef or MultiRef.
func (v FieldValue) RefIDs() []string {
	if v.kind != FieldSingleRef && v.kind != FieldMultiRef {
		return nil
	}
	out := make([]string, len(v.refs))
	copy(out, v.refs)
	return out
}

// Entry is a persisted object of the target store.
type Entry struct {
	Kind    EntityKind
	ID      string
	Version int
	Fields  map[string]FieldValue
}

// Set assigns a field; Absent values delete it.
func (e *Entry) Set(name string, v FieldValue) {
	if e.Fields == nil {
		e.Fields = map[string]FieldValue{}
	}
	if v.IsAbsent() {
		delete(e.Fields, name)
		return
	}
	e.Fields[name] = v
}

func (e *Entry) Field(name string) FieldValue {
	if e == nil || e.Fields == nil {
		return FieldValue{}
	}
	return e.Fields[name]
}

// Clone deep-copies the entry so stores can hand out snapshots.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := &Entry{Kind: e.Kind, ID: e.ID, Version: e.Version, Fields: make(map[string]FieldValue, len(e.Fields))}
	for k, v := range e.Fields {
		v.refs = append([]string(nil), v.refs...)
		out.Fields[k] = v
	}
	return out
}
