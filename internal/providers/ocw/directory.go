package ocw

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ocw-contentful/internal/domain"
)

// Directory is the OCW departments.json index:
//
//	[{"depNo": "7", "id": "biology", "title": "Biology"}, ...]
//
// Course listings key departments by number, faculty listings by title.
type Directory struct {
	byNumber map[string]domain.Attributes
	byTitle  map[string]domain.Attributes
}

func ParseDirectory(data []byte) (*Directory, error) {
	var list []map[string]any
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("ocw: departments json: %w", err)
	}

	d := &Directory{byNumber: map[string]domain.Attributes{}, byTitle: map[string]domain.Attributes{}}
	for _, m := range list {
		rec := domain.Attributes(m)
		if n := rec.String("depNo"); n != "" {
			rec["depNo"] = n
			d.byNumber[n] = rec
		}
		if t := rec.String("title"); t != "" {
			d.byTitle[t] = rec
		}
	}
	return d, nil
}

func (d *Directory) ByNumber(number string) (domain.Attributes, bool) {
	rec, ok := d.byNumber[strings.TrimSpace(number)]
	return rec, ok
}

func (d *Directory) ByTitle(title string) (domain.Attributes, bool) {
	rec, ok := d.byTitle[strings.TrimSpace(title)]
	return rec, ok
}

// Slugs returns the department ids ("biology", "physics"), sorted.
func (d *Directory) Slugs() []string {
	seen := map[string]bool{}
	var out []string
	for _, rec := range d.byNumber {
		if id := rec.String("id"); id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
