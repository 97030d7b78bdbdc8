// Package page defines the boundary between the field detector and a live
// web page. Backends (a CDP-driven browser tab, a parsed HTML document)
// implement these interfaces; nothing here owns page structure.
package page

import (
	"context"
	"errors"
	"time"
)

// ErrDetached is returned when an element handle no longer points at a node
// attached to the document.
var ErrDetached = errors.New("page: element detached")

// Document is a page the detector can scan.
type Document interface {
	// Candidates returns every input-capable element under the scan root,
	// in document order, with the facts read from current render state.
	Candidates(ctx context.Context) ([]Candidate, error)
}

// Element is a weak, non-owning reference to one node in the page. It is
// only valid until the host page removes the node and must not be cached
// beyond one scan.
type Element interface {
	// Key identifies the node's position in the document (for logs and
	// comparisons). Two handles with the same key address the same node
	// within a scan.
	Key() string

	// Apply runs the steps in order, inside one uninterrupted page
	// evaluation, using value for every StepSetValue.
	Apply(ctx context.Context, steps []Step, value string) error
}

// Watcher produces structural change notifications for a page.
type Watcher interface {
	// Watch subscribes to structural changes. The returned channel yields
	// one Change per mutation batch and is closed when ctx is done. A
	// subscription cannot be restarted once closed.
	Watch(ctx context.Context) (<-chan Change, error)
}

// Presenter shows transient confirmation UI on the page.
type Presenter interface {
	ShowBanner(ctx context.Context, message string, ttl time.Duration) error
}

// Change describes one batch of structural mutations.
type Change struct {
	Added int
	At    time.Time
}

// Candidate is the fact record for one input-capable element.
type Candidate struct {
	Element     Element
	Tag         string // input | textarea
	ID          string
	Name        string
	Placeholder string
	Type        string // declared input kind, as written
	Labels      LabelSources
	Render      Render
}

// Render is the render-state snapshot of an element at scan time.
type Render struct {
	Width      float64
	Height     float64
	Visibility string // computed visibility
	Display    string // computed display
	Disabled   bool
	ReadOnly   bool
}

// LabelSources holds the caption text found by each markup pattern. The
// detector decides which one wins.
type LabelSources struct {
	// Associated are the texts of labels formally tied to the element
	// (for= or wrapping), in document order.
	Associated []string
	// Parent is the text of the first label inside the element's parent.
	Parent string
	// PrevSibling is the text of the immediately preceding element sibling.
	PrevSibling string
	// PrevSiblingIsLabel reports whether that sibling is a label element.
	PrevSiblingIsLabel bool
}
