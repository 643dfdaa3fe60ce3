package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Css sets an inline style property on each matched element. An empty value
// drops the property instead.
func (s *Selection) Css(prop, val string) *Selection {
	return s.Each(func(_ int, n *html.Node) {
		setStyle(n, prop, val)
	})
}

// Style returns the inline style value of prop on the first match.
func (s *Selection) Style(prop string) (string, error) {
	n, err := s.firstNode()
	if err != nil {
		return "", err
	}
	return getStyle(n, prop), nil
}

// Hide sets display:none on each matched element.
func (s *Selection) Hide() *Selection {
	return s.Css("display", "none")
}

// Show sets display:block on each matched element.
func (s *Selection) Show() *Selection {
	return s.Css("display", "block")
}

// Toggle flips each matched element's display between none and block. An
// unset display counts as visible, the same as an explicit block.
func (s *Selection) Toggle() *Selection {
	return s.Each(func(_ int, n *html.Node) {
		if d := getStyle(n, "display"); d == "" || d == "block" {
			setStyle(n, "display", "none")
		} else {
			setStyle(n, "display", "block")
		}
	})
}

// Visible reports whether the first match would render with a nonzero box.
// The box model here is static: only inline styles, size attributes and
// content are consulted; stylesheets are not. An element hidden by its own
// or an ancestor's display:none is never visible.
func (s *Selection) Visible() (bool, error) {
	n, err := s.firstNode()
	if err != nil {
		return false, err
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && getStyle(cur, "display") == "none" {
			return false, nil
		}
	}
	return renderable(n), nil
}

// Height returns the first match's declared height in pixels, 0 when none
// is declared.
func (s *Selection) Height() (int, error) {
	n, err := s.firstNode()
	if err != nil {
		return 0, err
	}
	return nodeSize(n, "height"), nil
}

// Width returns the first match's declared width in pixels, 0 when none is
// declared.
func (s *Selection) Width() (int, error) {
	n, err := s.firstNode()
	if err != nil {
		return 0, err
	}
	return nodeSize(n, "width"), nil
}

// Tags that render a box regardless of content.
var intrinsicTags = map[atom.Atom]bool{
	atom.Img:      true,
	atom.Input:    true,
	atom.Br:       true,
	atom.Hr:       true,
	atom.Video:    true,
	atom.Canvas:   true,
	atom.Iframe:   true,
	atom.Textarea: true,
	atom.Select:   true,
	atom.Button:   true,
}

func renderable(n *html.Node) bool {
	if nodeSize(n, "width") > 0 || nodeSize(n, "height") > 0 {
		return true
	}
	if intrinsicTags[n.DataAtom] {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		case html.ElementNode:
			if getStyle(c, "display") != "none" && renderable(c) {
				return true
			}
		}
	}
	return false
}

// nodeSize reads a pixel dimension from the inline style first, then from
// the width/height attribute. Units the static model cannot resolve, like
// percentages, read as 0.
func nodeSize(n *html.Node, dim string) int {
	if v := getStyle(n, dim); v != "" {
		if px, ok := parsePx(v); ok {
			return px
		}
		return 0
	}
	if v, ok := attrValue(n, dim); ok {
		if px, ok := parsePx(v); ok {
			return px
		}
	}
	return 0
}

func parsePx(v string) (int, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSpace(strings.TrimSuffix(v, "px"))
	px, err := strconv.Atoi(v)
	if err != nil || px < 0 {
		return 0, false
	}
	return px, true
}

type styleDecl struct {
	prop string
	val  string
}

func parseStyle(raw string) []styleDecl {
	var out []styleDecl
	for _, part := range strings.Split(raw, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(strings.ToLower(prop))
		val = strings.TrimSpace(val)
		if prop == "" || val == "" {
			continue
		}
		out = append(out, styleDecl{prop: prop, val: val})
	}
	return out
}

func styleString(decls []styleDecl) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.val)
	}
	return strings.Join(parts, "; ")
}

// getStyle returns the inline value of prop; the last declaration wins.
func getStyle(n *html.Node, prop string) string {
	raw, ok := attrValue(n, "style")
	if !ok {
		return ""
	}
	prop = strings.ToLower(strings.TrimSpace(prop))
	val := ""
	for _, d := range parseStyle(raw) {
		if d.prop == prop {
			val = d.val
		}
	}
	return val
}

// setStyle rewrites the style attribute with prop set to val, dropping any
// previous declarations of the property. An empty val removes the property,
// and an emptied style attribute is removed outright.
func setStyle(n *html.Node, prop, val string) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	if prop == "" {
		return
	}
	val = strings.TrimSpace(val)

	raw, _ := attrValue(n, "style")
	var kept []styleDecl
	for _, d := range parseStyle(raw) {
		if d.prop != prop {
			kept = append(kept, d)
		}
	}
	if val != "" {
		kept = append(kept, styleDecl{prop: prop, val: val})
	}
	if len(kept) == 0 {
		removeAttrValue(n, "style")
		return
	}
	setAttrValue(n, "style", styleString(kept))
}
