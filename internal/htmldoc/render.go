package htmldoc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/v0xg/formfill/internal/page"
)

// Nominal box for a rendered control. Static markup has no layout, so any
// element that is not hidden by markup or inline style gets this size.
const (
	boxWidth  = 150
	boxHeight = 20
)

// renderOf approximates computed render state from markup and inline
// styles: the hidden attribute, display, visibility, width and height.
func renderOf(n *html.Node) page.Render {
	r := page.Render{
		Width:      boxWidth,
		Height:     boxHeight,
		Visibility: "visible",
		Display:    "inline-block",
		Disabled:   hasAttr(n, "disabled"),
		ReadOnly:   hasAttr(n, "readonly"),
	}

	if n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
		r.Width, r.Height = 0, 0
	}

	own := parseStyle(attr(n, "style"))
	if hasAttr(n, "hidden") || own["display"] == "none" {
		r.Display = "none"
		r.Width, r.Height = 0, 0
	}
	if isZeroLength(own["width"]) {
		r.Width = 0
	}
	if isZeroLength(own["height"]) {
		r.Height = 0
	}
	if v, ok := own["visibility"]; ok {
		r.Visibility = v
	}

	// Ancestors: display:none collapses the box; visibility inherits
	// unless the element overrides it.
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		st := parseStyle(attr(p, "style"))
		if hasAttr(p, "hidden") || st["display"] == "none" {
			r.Width, r.Height = 0, 0
		}
		if _, overridden := own["visibility"]; !overridden && st["visibility"] == "hidden" {
			r.Visibility = "hidden"
		}
	}
	return r
}

func parseStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(v)
	}
	return out
}

func isZeroLength(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	v = strings.TrimRight(v, "pxemrm%")
	return strings.Trim(v, "0.") == ""
}
