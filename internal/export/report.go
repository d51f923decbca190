package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/resolve"
)

// Report header. Keep order; downstream imports read columns by position.
var reportHeader = []string{
	"RUN_ID",
	"COURSE_UID",
	"KIND",
	"ENTRY_ID",
	"OUTCOME",
	"ERROR",
	"RECORDED_AT",
}

type ReportRow struct {
	CourseUID string
	Kind      domain.EntityKind
	ID        string
	Outcome   resolve.Outcome
	Err       string
	At        time.Time
}

// Report collects resolver outcomes for one migration run. It implements
// resolve.Recorder.
type Report struct {
	RunID string

	mu     sync.Mutex
	course string
	rows   []ReportRow
	now    func() time.Time
}

func NewReport() *Report {
	return &Report{RunID: uuid.New().String(), now: time.Now}
}

// Course tags the rows recorded from now on with the course uid.
func (r *Report) Course(uid string) {
	r.mu.Lock()
	r.course = uid
	r.mu.Unlock()
}

func (r *Report) Record(kind domain.EntityKind, id string, outcome resolve.Outcome, err error) {
	row := ReportRow{Kind: kind, ID: id, Outcome: outcome, At: r.now().UTC()}
	if err != nil {
		row.Err = oneLine(err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	row.CourseUID = r.course
	r.rows = append(r.rows, row)
}

func (r *Report) Rows() []ReportRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ReportRow(nil), r.rows...)
}

// Counts tallies rows per outcome.
func (r *Report) Counts() map[resolve.Outcome]int {
	out := map[resolve.Outcome]int{}
	for _, row := range r.Rows() {
		out[row.Outcome]++
	}
	return out
}

func (r *Report) Summary() string {
	c := r.Counts()
	return fmt.Sprintf("run=%s found=%d created=%d failed=%d skipped=%d",
		r.RunID, c[resolve.Found], c[resolve.Created], c[resolve.Failed], c[resolve.Skipped])
}

func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		if err := cw.Write([]string{
			r.RunID,
			row.CourseUID,
			row.Kind.String(),
			row.ID,
			row.Outcome.String(),
			row.Err,
			row.At.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the report to path, creating its directory.
func (r *Report) WriteCSVFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
