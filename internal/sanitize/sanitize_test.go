package sanitize

import (
	"strings"
	"testing"
)

func TestCleanHTMLStripsPresentationalAttributes(t *testing.T) {
	in := `<h2 class="subhead" id="x">Course Meeting Times</h2> <p style="color:red" name="p">Lectures: 3 sessions / week</p>`
	got := CleanHTML(in)

	for _, bad := range []string{"class=", "id=", "style=", "name="} {
		if strings.Contains(got, bad) {
			t.Errorf("Expected %q to be stripped, got %q", bad, got)
		}
	}
	if !strings.Contains(got, "<h2>Course Meeting Times</h2>") {
		t.Errorf("Expected heading to survive, got %q", got)
	}
}

func TestCleanHTMLRewritesCourseLinks(t *testing.T) {
	in := `<p><a href="/courses/physics/8-13-14-experimental-physics/labs/lab11">Lab 11</a> and <a href="http://store.example.com/x.html">a book</a></p>`
	got := CleanHTML(in)

	want := `href="https://ocw.mit.edu/courses/physics/8-13-14-experimental-physics/labs/lab11"`
	if !strings.Contains(got, want) {
		t.Errorf("Expected %s in %q", want, got)
	}
	if !strings.Contains(got, `href="http://store.example.com/x.html"`) {
		t.Errorf("Expected external link untouched, got %q", got)
	}
}

func TestCleanCustomBase(t *testing.T) {
	got := Clean(`<a href="/courses/a">a</a>`, "https://mirror.test/")
	if got != `<a href="https://mirror.test/courses/a">a</a>` {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestCleanHTMLEmpty(t *testing.T) {
	if got := CleanHTML("   "); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
}

func TestCleanHTMLKeepsTables(t *testing.T) {
	in := `<table summary="s"><tbody><tr class="row"><td>1</td><td>Natural Units</td></tr></tbody></table>`
	got := CleanHTML(in)
	if !strings.Contains(got, "<tr><td>1</td><td>Natural Units</td></tr>") {
		t.Errorf("Expected table row without class, got %q", got)
	}
	if !strings.Contains(got, `summary="s"`) {
		t.Errorf("Expected non-presentational attribute kept, got %q", got)
	}
}
