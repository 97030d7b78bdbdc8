package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/page"
)

// Field is one classified element.
type Field struct {
	Element page.Element
	Label   string
	Signals Signals
}

// Index maps each category to its candidates in document order. It is
// rebuilt wholesale on every scan and never patched.
type Index struct {
	ID        string
	ScannedAt time.Time
	Scanned   int // candidates seen
	Eligible  int // candidates that passed the visibility filter

	fields map[Category][]Field
}

// First returns the first candidate of a category. Only this element is
// ever targeted by autofill.
func (ix *Index) First(c Category) (Field, bool) {
	if ix == nil {
		return Field{}, false
	}
	fs := ix.fields[c]
	if len(fs) == 0 {
		return Field{}, false
	}
	return fs[0], true
}

// Fields returns all candidates of a category in document order.
func (ix *Index) Fields(c Category) []Field {
	if ix == nil {
		return nil
	}
	return ix.fields[c]
}

// Counts returns the number of candidates per category.
func (ix *Index) Counts() map[Category]int {
	out := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		out[c] = len(ix.Fields(c))
	}
	return out
}

// Summary is a comparable, serialisable view of an index.
type Summary map[Category][]FieldSummary

// FieldSummary describes one indexed element.
type FieldSummary struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
}

// Summary returns the element keys and labels per category.
func (ix *Index) Summary() Summary {
	s := make(Summary, len(Categories))
	for _, c := range Categories {
		fs := ix.Fields(c)
		out := make([]FieldSummary, 0, len(fs))
		for _, f := range fs {
			out = append(out, FieldSummary{Key: f.Element.Key(), Label: f.Label})
		}
		s[c] = out
	}
	return s
}

// Builder scans a document and produces an Index.
type Builder struct {
	doc    page.Document
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder's logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder returns a Builder for doc.
func NewBuilder(doc page.Document, opts ...Option) *Builder {
	b := &Builder{
		doc:    doc,
		logger: zap.NewNop(),
		newID:  newScanID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs one full scan. It only reads the page.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	cands, err := b.doc.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect: list candidates: %w", err)
	}

	ix := &Index{
		ID:        b.newID(),
		ScannedAt: b.now(),
		Scanned:   len(cands),
		fields:    make(map[Category][]Field, len(Categories)),
	}

	for _, c := range cands {
		if c.Element == nil || !Eligible(c.Render) {
			continue
		}
		ix.Eligible++

		sig := SignalsOf(c)
		cat, ok := Classify(sig)
		if !ok {
			continue
		}
		ix.fields[cat] = append(ix.fields[cat], Field{
			Element: c.Element,
			Label:   sig.Label,
			Signals: sig,
		})
	}

	counts := ix.Counts()
	b.logger.Debug("detected fields",
		zap.String("scan", ix.ID),
		zap.Int("scanned", ix.Scanned),
		zap.Int("eligible", ix.Eligible),
		zap.Int("name", counts[Name]),
		zap.Int("email", counts[Email]),
		zap.Int("phone", counts[Phone]),
		zap.Int("address", counts[Address]))

	return ix, nil
}

func newScanID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
