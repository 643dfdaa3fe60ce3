package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Document owns a parsed HTML tree and the event listener table for its
// nodes. A Document and the Selections derived from it are not safe for
// concurrent mutation; callers running ops from multiple goroutines must
// serialize access themselves.
type Document struct {
	root *html.Node
	url  string

	eventMu   sync.Mutex
	listeners map[*html.Node]map[string][]listener
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node at the top of the tree.
func (d *Document) Root() *html.Node {
	return d.root
}

// URL reports the address this document was loaded from, if any.
func (d *Document) URL() string {
	return d.url
}

func (d *Document) SetURL(u string) {
	d.url = u
}

// Find returns a live Selection for the given CSS selector, scoped to the
// whole document. The selector is re-run against the tree every time the
// Selection resolves, so later document mutations are observed.
func (d *Document) Find(selector string) *Selection {
	return &Selection{doc: d, expr: selector}
}

// FindIn scopes the selector to the first element matching context. When the
// context selector matches nothing, or does not compile, the query falls back
// to the document root.
func (d *Document) FindIn(selector, context string) *Selection {
	return &Selection{doc: d, expr: selector, scopeExpr: context}
}

// Wrap returns a fixed Selection holding exactly the given nodes, in order.
func (d *Document) Wrap(nodes ...*html.Node) *Selection {
	return &Selection{doc: d, nodes: nodes, fixed: true}
}

// Html renders the full document back to markup.
func (d *Document) Html() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return sb.String(), nil
}
