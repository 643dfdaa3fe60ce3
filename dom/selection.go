package dom

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrEmptySelection is returned by scalar reads on a Selection that resolved
// to no elements.
var ErrEmptySelection = errors.New("empty selection")

// Selection is a chainable wrapper over a set of matched elements. It is
// either live (a selector expression re-run against the document on every
// resolve, so mutations between reads are observed) or fixed (a concrete
// node sequence produced by a narrowing op or Document.Wrap).
//
// The empty-selection policy is uniform: scalar reads from the first match
// return ErrEmptySelection when nothing matched, chainable ops on an empty
// Selection are no-ops, and navigating off the edge of the tree yields an
// empty Selection rather than an error. A selector expression that fails to
// compile makes the Selection sticky-failed: Err reports the failure,
// chainable ops do nothing and scalar reads return it.
type Selection struct {
	doc       *Document
	expr      string
	scopeExpr string
	compiled  cascadia.Selector
	nodes     []*html.Node
	fixed     bool
	err       error
}

// Resolve produces the current ordered element sequence. Live selections
// compile their expression once but match it afresh on every call; nothing
// is cached between reads. Fixed selections return their snapshot, detached
// nodes included.
func (s *Selection) Resolve() ([]*html.Node, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.fixed {
		return s.nodes, nil
	}
	if s.compiled == nil {
		c, err := cascadia.Compile(s.expr)
		if err != nil {
			s.err = fmt.Errorf("compile selector %q: %w", s.expr, err)
			return nil, s.err
		}
		s.compiled = c
	}
	if s.scopeExpr != "" {
		if c, err := cascadia.Compile(s.scopeExpr); err == nil {
			if scope := c.MatchFirst(s.doc.root); scope != nil {
				return matchDescendants(s.compiled, scope), nil
			}
		}
	}
	return s.compiled.MatchAll(s.doc.root), nil
}

// Err reports the sticky failure on this Selection, if any.
func (s *Selection) Err() error {
	return s.err
}

// Length returns the number of matched elements; 0 when the selection is
// empty or failed.
func (s *Selection) Length() int {
	nodes, err := s.Resolve()
	if err != nil {
		return 0
	}
	return len(nodes)
}

// Each applies fn to every matched element in document order and returns the
// receiver. A panic inside fn propagates to the caller and aborts the
// remaining iterations; there is no containment.
func (s *Selection) Each(fn func(i int, n *html.Node)) *Selection {
	nodes, err := s.Resolve()
	if err != nil {
		return s
	}
	for i, n := range nodes {
		fn(i, n)
	}
	return s
}

// Find narrows to the descendants of the first currently matched element
// that match child. The other outer matches are dropped before descending.
func (s *Selection) Find(child string) *Selection {
	out := s.sub(nil)
	if out.err != nil {
		return out
	}
	c, err := cascadia.Compile(child)
	if err != nil {
		out.err = fmt.Errorf("compile selector %q: %w", child, err)
		return out
	}
	nodes, err := s.Resolve()
	if err != nil {
		out.err = err
		return out
	}
	if len(nodes) == 0 {
		return out
	}
	out.nodes = matchDescendants(c, nodes[0])
	return out
}

// Prev narrows to the element sibling immediately before the first match.
func (s *Selection) Prev() *Selection {
	return s.adjacent(func(n *html.Node) *html.Node {
		for p := n.PrevSibling; p != nil; p = p.PrevSibling {
			if p.Type == html.ElementNode {
				return p
			}
		}
		return nil
	})
}

// Next narrows to the element sibling immediately after the first match.
func (s *Selection) Next() *Selection {
	return s.adjacent(func(n *html.Node) *html.Node {
		for p := n.NextSibling; p != nil; p = p.NextSibling {
			if p.Type == html.ElementNode {
				return p
			}
		}
		return nil
	})
}

// First narrows to a one-element Selection holding the first match.
func (s *Selection) First() *Selection {
	out := s.sub(nil)
	if out.err != nil {
		return out
	}
	nodes, err := s.Resolve()
	if err != nil {
		out.err = err
		return out
	}
	if len(nodes) > 0 {
		out.nodes = nodes[:1]
	}
	return out
}

// Last narrows to a one-element Selection holding the last match.
func (s *Selection) Last() *Selection {
	out := s.sub(nil)
	if out.err != nil {
		return out
	}
	nodes, err := s.Resolve()
	if err != nil {
		out.err = err
		return out
	}
	if len(nodes) > 0 {
		out.nodes = nodes[len(nodes)-1:]
	}
	return out
}

// Parent narrows to the parent element of the first match.
func (s *Selection) Parent() *Selection {
	return s.adjacent(func(n *html.Node) *html.Node {
		if p := n.Parent; p != nil && p.Type == html.ElementNode {
			return p
		}
		return nil
	})
}

// Children narrows to the element children of the first match.
func (s *Selection) Children() *Selection {
	out := s.sub(nil)
	if out.err != nil {
		return out
	}
	first, err := s.firstNode()
	if err != nil {
		if errors.Is(err, ErrEmptySelection) {
			return out
		}
		out.err = err
		return out
	}
	for c := first.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out.nodes = append(out.nodes, c)
		}
	}
	return out
}

// Matches reports whether the first matched element satisfies the given
// selector.
func (s *Selection) Matches(selector string) (bool, error) {
	c, err := cascadia.Compile(selector)
	if err != nil {
		return false, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	n, err := s.firstNode()
	if err != nil {
		return false, err
	}
	return c.Match(n), nil
}

// sub derives a fixed Selection on the same document, carrying any sticky
// error forward.
func (s *Selection) sub(nodes []*html.Node) *Selection {
	return &Selection{doc: s.doc, nodes: nodes, fixed: true, err: s.err}
}

// adjacent narrows to a single related element of the first match, or to an
// empty Selection when there is none.
func (s *Selection) adjacent(pick func(*html.Node) *html.Node) *Selection {
	out := s.sub(nil)
	if out.err != nil {
		return out
	}
	first, err := s.firstNode()
	if err != nil {
		if errors.Is(err, ErrEmptySelection) {
			return out
		}
		out.err = err
		return out
	}
	if n := pick(first); n != nil {
		out.nodes = []*html.Node{n}
	}
	return out
}

// firstNode resolves and returns the first match, or ErrEmptySelection.
func (s *Selection) firstNode() (*html.Node, error) {
	nodes, err := s.Resolve()
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrEmptySelection
	}
	return nodes[0], nil
}

// matchDescendants runs sel over the subtrees below n, excluding n itself,
// mirroring element-scoped query semantics.
func matchDescendants(sel cascadia.Selector, n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, sel.MatchAll(c)...)
	}
	return out
}
