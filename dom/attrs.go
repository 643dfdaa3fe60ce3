package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SetAttr sets the named attribute on each matched element.
func (s *Selection) SetAttr(name, val string) *Selection {
	name = normalizeAttrName(name)
	if name == "" {
		return s
	}
	return s.Each(func(_ int, n *html.Node) {
		setAttrValue(n, name, val)
	})
}

// RemoveAttr removes the named attribute from each matched element.
func (s *Selection) RemoveAttr(name string) *Selection {
	name = normalizeAttrName(name)
	if name == "" {
		return s
	}
	return s.Each(func(_ int, n *html.Node) {
		removeAttrValue(n, name)
	})
}

// Attr returns the named attribute's value from the first match. An absent
// attribute reads as the empty string without error.
func (s *Selection) Attr(name string) (string, error) {
	n, err := s.firstNode()
	if err != nil {
		return "", err
	}
	v, _ := attrValue(n, normalizeAttrName(name))
	return v, nil
}

// Val returns the form value of the first match: the value attribute for
// inputs and most controls, the text content for textareas, and the selected
// option's value for selects.
func (s *Selection) Val() (string, error) {
	n, err := s.firstNode()
	if err != nil {
		return "", err
	}
	switch n.DataAtom {
	case atom.Textarea:
		return textContent(n), nil
	case atom.Select:
		return selectValue(n), nil
	}
	v, _ := attrValue(n, "value")
	return v, nil
}

// selectValue picks the first option flagged selected, falling back to the
// first option at all, matching default form behaviour.
func selectValue(sel *html.Node) string {
	var first, chosen *html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Option {
				if first == nil {
					first = c
				}
				if _, ok := attrValue(c, "selected"); ok && chosen == nil {
					chosen = c
				}
			}
			walk(c.FirstChild)
		}
	}
	walk(sel.FirstChild)
	opt := chosen
	if opt == nil {
		opt = first
	}
	if opt == nil {
		return ""
	}
	if v, ok := attrValue(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(opt))
}

// The html parser lowercases attribute keys, so lookups do the same.
func normalizeAttrName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func attrValue(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttrValue(n *html.Node, name, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

func removeAttrValue(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
