package htmldoc

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// selector is a single compound selector: tag, #id, .class, [attr] or
// [attr=val], e.g. "form#signup" or "div.row".
type selector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
}

func parseSelector(sel string) selector {
	var s selector
	sel = strings.TrimSpace(sel)

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			s.attrKey = attrPart[:eq]
			s.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}
	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}
	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}
	s.tag = strings.ToLower(sel)
	return s
}

func (s selector) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if s.class != "" {
		found := false
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == s.class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.attrKey != "" {
		if !hasAttr(n, s.attrKey) {
			return false
		}
		if s.attrVal != "" && attr(n, s.attrKey) != s.attrVal {
			return false
		}
	}
	return true
}

// first returns the first node under root (inclusive) matching sel in
// document order.
func first(root *html.Node, sel selector) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if sel.match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// firstDescendant is first without n itself, like Element.querySelector.
func firstDescendant(n *html.Node, sel selector) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := first(c, sel); found != nil {
			return found
		}
	}
	return nil
}

// walk visits nodes in document order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// textContent concatenates all descendant text, like Node.textContent.
func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// xpath returns an absolute XPath such as /html/body/form/input[2].
func xpath(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		idx, total := 0, 0
		for s := firstSibling(n); s != nil; s = s.NextSibling {
			if s.Type == html.ElementNode && s.Data == n.Data {
				total++
				if s == n {
					idx = total
				}
			}
		}
		part := n.Data
		if total > 1 {
			part = fmt.Sprintf("%s[%d]", n.Data, idx)
		}
		parts = append(parts, part)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

func firstSibling(n *html.Node) *html.Node {
	if n.Parent != nil {
		return n.Parent.FirstChild
	}
	for n.PrevSibling != nil {
		n = n.PrevSibling
	}
	return n
}

func prevElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func isInputCapable(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Input || n.DataAtom == atom.Textarea)
}
