package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Position selects where Append places parsed markup relative to each
// matched element.
type Position string

const (
	Before  Position = "before"
	After   Position = "after"
	AtStart Position = "atstart"
	AtEnd   Position = "atend"
)

// ParsePosition maps a user-supplied string onto a Position. Unknown strings
// pass through unchanged; Append treats them as a no-op.
func ParsePosition(s string) Position {
	return Position(strings.ToLower(strings.TrimSpace(s)))
}

// Append parses markup and inserts it relative to each matched element:
// immediately before or after it, or as its first or last child. The
// fragment is parsed once per element so every target gets its own nodes.
// An unrecognized position is a no-op per element.
func (s *Selection) Append(pos Position, markup string) *Selection {
	return s.Each(func(_ int, n *html.Node) {
		switch pos {
		case Before:
			if n.Parent == nil {
				return
			}
			for _, f := range parseFragment(markup, n.Parent) {
				n.Parent.InsertBefore(f, n)
			}
		case After:
			if n.Parent == nil {
				return
			}
			ref := n.NextSibling
			for _, f := range parseFragment(markup, n.Parent) {
				n.Parent.InsertBefore(f, ref)
			}
		case AtStart:
			ref := n.FirstChild
			for _, f := range parseFragment(markup, n) {
				n.InsertBefore(f, ref)
			}
		case AtEnd:
			for _, f := range parseFragment(markup, n) {
				n.AppendChild(f)
			}
		}
	})
}

// SetText replaces each matched element's content with a single text node.
func (s *Selection) SetText(text string) *Selection {
	return s.Each(func(_ int, n *html.Node) {
		removeChildren(n)
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	})
}

// SetHtml replaces each matched element's content with the parsed markup.
func (s *Selection) SetHtml(markup string) *Selection {
	return s.Each(func(_ int, n *html.Node) {
		removeChildren(n)
		for _, f := range parseFragment(markup, n) {
			n.AppendChild(f)
		}
	})
}

// Empty clears each matched element's content.
func (s *Selection) Empty() *Selection {
	return s.Each(func(_ int, n *html.Node) {
		removeChildren(n)
	})
}

// Remove detaches each matched element from its parent. Fixed selections
// keep holding the detached nodes and can still operate on them.
func (s *Selection) Remove() *Selection {
	return s.Each(func(_ int, n *html.Node) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	})
}

// Clone returns a new Selection holding detached deep copies of each
// matched element, attributes and subtrees included. The originals are left
// in place.
func (s *Selection) Clone() *Selection {
	out := s.sub(nil)
	if out.err != nil {
		return out
	}
	nodes, err := s.Resolve()
	if err != nil {
		out.err = err
		return out
	}
	for _, n := range nodes {
		out.nodes = append(out.nodes, cloneNode(n))
	}
	return out
}

// Text returns the concatenated text content of the first match's subtree.
func (s *Selection) Text() (string, error) {
	n, err := s.firstNode()
	if err != nil {
		return "", err
	}
	return textContent(n), nil
}

// Html returns the inner markup of the first match.
func (s *Selection) Html() (string, error) {
	n, err := s.firstNode()
	if err != nil {
		return "", err
	}
	return innerHTML(n)
}

// OuterHTML renders the first match including its own tag.
func (s *Selection) OuterHTML() (string, error) {
	n, err := s.firstNode()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", fmt.Errorf("render element: %w", err)
	}
	return sb.String(), nil
}

// parseFragment parses markup under the fragment rules of ctx, falling back
// to a body context when ctx is not an element. The returned nodes are
// detached and safe to insert anywhere.
func parseFragment(markup string, ctx *html.Node) []*html.Node {
	if ctx == nil || ctx.Type != html.ElementNode {
		ctx = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil
	}
	return nodes
}

// cloneNode deep-copies n without its parent or sibling links.
func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return sb.String()
}

func innerHTML(n *html.Node) (string, error) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return sb.String(), nil
}
