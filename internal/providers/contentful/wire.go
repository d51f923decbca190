package contentful

import (
	"encoding/json"
	"fmt"

	"ocw-contentful/internal/domain"
)

// Wire shapes of the Content Management API:
//
//	{"sys": {"id": "...", "version": 3, "contentType": {"sys": {...}}},
//	 "fields": {"title": {"en-US": "..."}}}
type wireEntry struct {
	Sys    wireSys                               `json:"sys"`
	Fields map[string]map[string]json.RawMessage `json:"fields"`
}

type wireFields struct {
	Fields map[string]map[string]json.RawMessage `json:"fields"`
}

type wireSys struct {
	ID          string    `json:"id"`
	Type        string    `json:"type,omitempty"`
	Version     int       `json:"version,omitempty"`
	ContentType *wireLink `json:"contentType,omitempty"`
}

type wireLink struct {
	Sys linkSys `json:"sys"`
}

type linkSys struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

func (w *wireEntry) contentType() string {
	if w.Sys.ContentType == nil {
		return ""
	}
	return w.Sys.ContentType.Sys.ID
}

func entryLink(id string) wireLink {
	return wireLink{Sys: linkSys{Type: "Link", LinkType: "Entry", ID: id}}
}

func encodeValue(fv domain.FieldValue) (json.RawMessage, error) {
	switch fv.Kind() {
	case domain.FieldText:
		return json.Marshal(fv.TextValue())
	case domain.FieldSingleRef:
		return json.Marshal(entryLink(fv.RefID()))
	case domain.FieldMultiRef:
		links := make([]wireLink, 0, len(fv.RefIDs()))
		for _, id := range fv.RefIDs() {
			links = append(links, entryLink(id))
		}
		return json.Marshal(links)
	}
	return nil, fmt.Errorf("%w: %s value", domain.ErrUnrepresentableField, fv.Kind())
}

// decodeValue reads a string, an entry link or a list of entry links.
func decodeValue(raw json.RawMessage) (domain.FieldValue, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.Text(s), true
	}

	var link wireLink
	if err := json.Unmarshal(raw, &link); err == nil && isEntryLink(link) {
		return domain.SingleRef(link.Sys.ID), true
	}

	var links []wireLink
	if err := json.Unmarshal(raw, &links); err == nil {
		ids := make([]string, 0, len(links))
		for _, l := range links {
			if !isEntryLink(l) {
				return domain.Absent(), false
			}
			ids = append(ids, l.Sys.ID)
		}
		return domain.MultiRef(ids), true
	}
	return domain.Absent(), false
}

func isEntryLink(l wireLink) bool {
	return l.Sys.Type == "Link" && l.Sys.LinkType == "Entry" && l.Sys.ID != ""
}
