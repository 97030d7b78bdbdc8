package htmldoc

import (
	"context"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/v0xg/formfill/internal/page"
)

// Element is a handle to one node of a Document.
type Element struct {
	doc      *Document
	node     *html.Node
	key      string
	timeline []Event
}

// Event is one step observed on an element. Seq is a document-wide
// logical clock, so events on different elements are ordered too.
type Event struct {
	Seq   uint64
	Kind  page.StepKind
	Event string
	Value string // element value right after the step
}

// Key implements page.Element.
func (e *Element) Key() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.key
}

// Apply implements page.Element. The whole plan runs under the document
// lock, so no other mutation interleaves with it.
func (e *Element) Apply(ctx context.Context, steps []page.Step, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d := e.doc
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.attachedLocked(e.node) {
		return page.ErrDetached
	}

	for _, s := range steps {
		switch s.Kind {
		case page.StepDispatch:
		case page.StepSetValue:
			setValue(e.node, value)
		default:
			return fmt.Errorf("htmldoc: unknown step %q", s.Kind)
		}
		d.clock++
		e.timeline = append(e.timeline, Event{
			Seq:   d.clock,
			Kind:  s.Kind,
			Event: s.Event,
			Value: valueOf(e.node),
		})
	}
	return nil
}

// Value returns the element's current value.
func (e *Element) Value() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return valueOf(e.node)
}

// Timeline returns the steps applied to the element so far.
func (e *Element) Timeline() []Event {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return append([]Event(nil), e.timeline...)
}

func valueOf(n *html.Node) string {
	if n.DataAtom == atom.Textarea {
		return textContent(n)
	}
	return attr(n, "value")
}

func setValue(n *html.Node, v string) {
	if n.DataAtom == atom.Textarea {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		return
	}
	setAttr(n, "value", v)
}
