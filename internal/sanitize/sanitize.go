// Package sanitize cleans OCW page HTML before it is stored as page text.
package sanitize

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultBaseURL prefixes site-relative course links.
const DefaultBaseURL = "https://ocw.mit.edu"

var strippedAttrs = map[string]bool{
	"class": true,
	"id":    true,
	"name":  true,
	"style": true,
}

// CleanHTML removes presentational attributes (class, id, name, style) from
// every element and rewrites relative "/courses/..." links to absolute URLs
// under DefaultBaseURL. Malformed input is returned trimmed but otherwise
// untouched.
func CleanHTML(src string) string {
	return Clean(src, DefaultBaseURL)
}

// Clean is CleanHTML with an explicit base URL.
func Clean(src, baseURL string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return src
	}

	base := strings.TrimRight(baseURL, "/")
	var buf bytes.Buffer
	for _, n := range nodes {
		walk(n, base)
		if err := html.Render(&buf, n); err != nil {
			return src
		}
	}
	return strings.TrimSpace(buf.String())
}

func walk(n *html.Node, base string) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if strippedAttrs[strings.ToLower(a.Key)] {
				continue
			}
			if n.Data == "a" && a.Key == "href" && strings.HasPrefix(a.Val, "/courses/") {
				a.Val = base + a.Val
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, base)
	}
}
