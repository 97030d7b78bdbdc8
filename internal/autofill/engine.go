// Package autofill runs fill passes against a page: it keeps the latest
// field index, writes a persona into the first candidate of each category
// and shows a confirmation banner.
package autofill

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/detect"
	"github.com/v0xg/formfill/internal/executor"
	"github.com/v0xg/formfill/internal/page"
)

// State is the rebuild state of an Engine.
type State int32

const (
	Idle State = iota
	Rebuilding
)

func (s State) String() string {
	if s == Rebuilding {
		return "rebuilding"
	}
	return "idle"
}

// Feedback configures the confirmation banner.
type Feedback struct {
	Enabled  bool
	Message  string
	Duration time.Duration
}

// DefaultFeedback is the banner shown after a fill pass.
var DefaultFeedback = Feedback{
	Enabled:  true,
	Message:  "Form filled successfully!",
	Duration: 3 * time.Second,
}

// Engine owns the field index of one page.
type Engine struct {
	builder   *detect.Builder
	injector  *executor.Injector
	presenter page.Presenter
	feedback  Feedback
	logger    *zap.Logger

	mu       sync.Mutex
	index    *detect.Index
	indexSeq uint64
	scanSeq  atomic.Uint64
	inFlight atomic.Int32
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFeedback sets the banner configuration.
func WithFeedback(f Feedback) Option {
	return func(e *Engine) { e.feedback = f }
}

// New creates an Engine for doc. When doc also implements page.Presenter
// it is used for the confirmation banner.
func New(doc page.Document, opts ...Option) *Engine {
	e := &Engine{
		feedback: DefaultFeedback,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.builder = detect.NewBuilder(doc, detect.WithLogger(e.logger))
	e.injector = executor.New(e.logger)
	if p, ok := doc.(page.Presenter); ok {
		e.presenter = p
	}
	return e
}

// Rebuild scans the page and replaces the index. Calls may overlap; the
// index from the most recently started scan that completes wins, and an
// older scan never replaces a newer one.
func (e *Engine) Rebuild(ctx context.Context) (*detect.Index, error) {
	seq := e.scanSeq.Add(1)
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	ix, err := e.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq > e.indexSeq {
		e.index = ix
		e.indexSeq = seq
	}
	return e.index, nil
}

// Index returns the current index, or nil before the first scan.
func (e *Engine) Index() *detect.Index {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// State reports whether a rebuild is in progress.
func (e *Engine) State() State {
	if e.inFlight.Load() > 0 {
		return Rebuilding
	}
	return Idle
}
