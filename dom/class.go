package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// AddClass adds name to each matched element's class set. Elements that
// already carry the class are left alone, so the op is idempotent.
func (s *Selection) AddClass(name string) *Selection {
	name = strings.TrimSpace(name)
	if name == "" {
		return s
	}
	return s.Each(func(_ int, n *html.Node) {
		addClassNode(n, name)
	})
}

// RemoveClass removes name from each matched element's class set.
func (s *Selection) RemoveClass(name string) *Selection {
	name = strings.TrimSpace(name)
	if name == "" {
		return s
	}
	return s.Each(func(_ int, n *html.Node) {
		removeClassNode(n, name)
	})
}

// ToggleClass adds the class where missing and removes it where present.
func (s *Selection) ToggleClass(name string) *Selection {
	name = strings.TrimSpace(name)
	if name == "" {
		return s
	}
	return s.Each(func(_ int, n *html.Node) {
		if hasClassNode(n, name) {
			removeClassNode(n, name)
		} else {
			addClassNode(n, name)
		}
	})
}

// HasClass tests class membership on the first match only.
func (s *Selection) HasClass(name string) (bool, error) {
	n, err := s.firstNode()
	if err != nil {
		return false, err
	}
	return hasClassNode(n, strings.TrimSpace(name)), nil
}

func classList(n *html.Node) []string {
	raw, _ := attrValue(n, "class")
	return strings.Fields(raw)
}

func hasClassNode(n *html.Node, name string) bool {
	for _, c := range classList(n) {
		if c == name {
			return true
		}
	}
	return false
}

func addClassNode(n *html.Node, name string) {
	if hasClassNode(n, name) {
		return
	}
	setAttrValue(n, "class", strings.TrimSpace(strings.Join(append(classList(n), name), " ")))
}

func removeClassNode(n *html.Node, name string) {
	classes := classList(n)
	kept := classes[:0]
	for _, c := range classes {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttrValue(n, "class")
		return
	}
	setAttrValue(n, "class", strings.Join(kept, " "))
}
