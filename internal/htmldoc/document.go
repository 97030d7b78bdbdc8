// Package htmldoc implements the page interfaces over a parsed HTML tree.
// It backs the offline scan command and keeps a per-element record of every
// injection step, so fills can be checked without a browser.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/v0xg/formfill/internal/page"
)

// Document is a mutable, in-memory HTML page.
type Document struct {
	mu      sync.Mutex
	doc     *html.Node
	root    selector
	hasRoot bool
	elems   map[*html.Node]*Element
	subs    map[chan page.Change]struct{}
	clock   uint64
	banners []Banner
}

// Banner is a confirmation message shown on the page.
type Banner struct {
	Message string
	TTL     time.Duration
}

// Option configures a Document.
type Option func(*Document)

// WithRoot limits scans to the first element matching sel.
func WithRoot(sel string) Option {
	return func(d *Document) {
		if strings.TrimSpace(sel) != "" {
			d.root = parseSelector(sel)
			d.hasRoot = true
		}
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	d := &Document{
		doc:   n,
		elems: make(map[*html.Node]*Element),
		subs:  make(map[chan page.Change]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// Candidates returns every input and textarea under the scan root in
// document order.
func (d *Document) Candidates(ctx context.Context) ([]page.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	root := d.doc
	if d.hasRoot {
		if root = first(d.doc, d.root); root == nil {
			return nil, nil
		}
	}

	var out []page.Candidate
	walk(root, func(n *html.Node) bool {
		if !isInputCapable(n) {
			return true
		}
		el := d.elementLocked(n)
		el.key = xpath(n)
		out = append(out, page.Candidate{
			Element:     el,
			Tag:         n.Data,
			ID:          attr(n, "id"),
			Name:        attr(n, "name"),
			Placeholder: attr(n, "placeholder"),
			Type:        declaredType(n),
			Labels:      d.labelsLocked(n),
			Render:      renderOf(n),
		})
		return true
	})
	return out, nil
}

// Element returns the handle for the first element matching sel.
func (d *Document) Element(sel string) (*Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := first(d.doc, parseSelector(sel))
	if n == nil {
		return nil, fmt.Errorf("htmldoc: no element matches %q", sel)
	}
	el := d.elementLocked(n)
	el.key = xpath(n)
	return el, nil
}

// Append parses fragment and appends its nodes as children of the first
// element matching sel, then notifies watchers.
func (d *Document) Append(sel, fragment string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := first(d.doc, parseSelector(sel))
	if target == nil {
		return fmt.Errorf("htmldoc: no element matches %q", sel)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), target)
	if err != nil {
		return fmt.Errorf("htmldoc: parse fragment: %w", err)
	}
	for _, n := range nodes {
		target.AppendChild(n)
	}
	d.notifyLocked(page.Change{Added: len(nodes), At: time.Now()})
	return nil
}

// Remove detaches the first element matching sel. Handles to it stay
// valid Go values but report page.ErrDetached.
func (d *Document) Remove(sel string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := first(d.doc, parseSelector(sel))
	if n == nil || n.Parent == nil {
		return fmt.Errorf("htmldoc: no removable element matches %q", sel)
	}
	n.Parent.RemoveChild(n)
	// Handles already given out stay usable and report ErrDetached; the
	// document stops tracking them.
	walk(n, func(c *html.Node) bool {
		delete(d.elems, c)
		return true
	})
	d.notifyLocked(page.Change{At: time.Now()})
	return nil
}

// Watch implements page.Watcher. Notifications coalesce: when one is
// already pending, a later change is folded into it, since the rebuild it
// triggers reads the current tree.
func (d *Document) Watch(ctx context.Context) (<-chan page.Change, error) {
	ch := make(chan page.Change, 1)

	d.mu.Lock()
	d.subs[ch] = struct{}{}
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		delete(d.subs, ch)
		close(ch)
		d.mu.Unlock()
	}()
	return ch, nil
}

func (d *Document) notifyLocked(c page.Change) {
	for ch := range d.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// ShowBanner implements page.Presenter by recording the message.
func (d *Document) ShowBanner(ctx context.Context, message string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.banners = append(d.banners, Banner{Message: message, TTL: ttl})
	d.mu.Unlock()
	return nil
}

// Banners returns the banners shown so far.
func (d *Document) Banners() []Banner {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Banner(nil), d.banners...)
}

// Render writes the current document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.doc)
}

func (d *Document) elementLocked(n *html.Node) *Element {
	el, ok := d.elems[n]
	if !ok {
		el = &Element{doc: d, node: n}
		d.elems[n] = el
	}
	return el
}

func (d *Document) attachedLocked(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == d.doc {
			return true
		}
	}
	return false
}

// labelsLocked gathers caption text for each markup pattern: labels tied
// by for= or by wrapping, the first label in the parent, and the
// preceding sibling.
func (d *Document) labelsLocked(n *html.Node) page.LabelSources {
	var src page.LabelSources

	id := attr(n, "id")
	walk(d.doc, func(c *html.Node) bool {
		if c.Type != html.ElementNode || c.DataAtom != atom.Label {
			return true
		}
		if hasAttr(c, "for") {
			if id != "" && attr(c, "for") == id {
				src.Associated = append(src.Associated, textContent(c))
			}
		} else if firstLabelable(c) == n {
			// A label without for= labels only its first labelable descendant.
			src.Associated = append(src.Associated, textContent(c))
		}
		return true
	})

	if p := n.Parent; p != nil {
		if l := firstDescendant(p, selector{tag: "label"}); l != nil {
			src.Parent = textContent(l)
		}
	}

	if prev := prevElement(n); prev != nil {
		src.PrevSibling = textContent(prev)
		src.PrevSiblingIsLabel = prev.DataAtom == atom.Label
	}
	return src
}

// firstLabelable returns the first descendant of label that a label can
// be associated with.
func firstLabelable(label *html.Node) *html.Node {
	var found *html.Node
	for c := label.FirstChild; c != nil && found == nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if isLabelable(n) {
				found = n
				return false
			}
			return true
		})
	}
	return found
}

func isLabelable(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Input:
		return !strings.EqualFold(attr(n, "type"), "hidden")
	case atom.Textarea, atom.Select, atom.Button, atom.Meter, atom.Output, atom.Progress:
		return true
	}
	return false
}

func declaredType(n *html.Node) string {
	if n.DataAtom == atom.Textarea {
		return "textarea"
	}
	t := strings.ToLower(strings.TrimSpace(attr(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}
