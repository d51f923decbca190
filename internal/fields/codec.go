// Package fields encodes normalized attribute values into the typed field
// envelope of the target store.
package fields

import (
	"fmt"
	"sort"

	"ocw-contentful/internal/domain"
)

// DefaultLocale is the only locale written by this service.
const DefaultLocale = "en-US"

// Encode converts a raw value into a FieldValue. Unsupported values (numbers,
// booleans, nil, nested maps) are Absent.
func Encode(v any) domain.FieldValue {
	fv, _ := encode(v)
	return fv
}

// encode also reports whether the value was representable.
func encode(v any) (domain.FieldValue, bool) {
	switch t := v.(type) {
	case string:
		return domain.Text(t), true
	case domain.FieldValue:
		return t, true
	case *domain.Entry:
		if t == nil {
			return domain.Absent(), true
		}
		return domain.SingleRef(t.ID), true
	case []*domain.Entry:
		ids := make([]string, 0, len(t))
		for _, e := range t {
			// nil members are unresolved children.
			if e == nil {
				continue
			}
			ids = append(ids, e.ID)
		}
		return domain.MultiRef(ids), true
	default:
		return domain.Absent(), false
	}
}

// Localized maps a locale tag to the value for that locale.
type Localized map[string]domain.FieldValue

// Payload is the body proposed to the store on creation.
type Payload struct {
	ContentTypeID string
	Fields        map[string]Localized
}

// Build encodes every value of attrs for the default locale.
// Absent fields are left out of the payload. The returned error joins an
// ErrUnrepresentableField for every value that could not be encoded; the
// payload is still usable.
func Build(contentType string, attrs map[string]any) (Payload, error) {
	p := Payload{ContentTypeID: contentType, Fields: make(map[string]Localized, len(attrs))}

	var bad []string
	for name, raw := range attrs {
		fv, ok := encode(raw)
		if !ok {
			bad = append(bad, name)
			continue
		}
		if fv.IsAbsent() {
			continue
		}
		p.Fields[name] = Localized{DefaultLocale: fv}
	}

	if len(bad) > 0 {
		sort.Strings(bad)
		return p, fmt.Errorf("%w: %v", domain.ErrUnrepresentableField, bad)
	}
	return p, nil
}

// Values returns the default-locale value of each field.
func (p Payload) Values() map[string]domain.FieldValue {
	out := make(map[string]domain.FieldValue, len(p.Fields))
	for name, loc := range p.Fields {
		if v, ok := loc[DefaultLocale]; ok {
			out[name] = v
		}
	}
	return out
}
