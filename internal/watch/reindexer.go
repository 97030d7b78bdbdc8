// Package watch keeps a page's field index current by rebuilding it
// whenever the page inserts new nodes.
package watch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/detect"
	"github.com/v0xg/formfill/internal/page"
)

// Rebuilder replaces a page's field index with a fresh scan.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*detect.Index, error)
}

// Config for creating a Reindexer.
type Config struct {
	// Debounce collapses bursts of changes into one rebuild. Zero rebuilds
	// once per change batch.
	Debounce time.Duration
	// MaxWait bounds how long a pending rebuild can be deferred by a page
	// that keeps mutating. Default: 4x Debounce.
	MaxWait time.Duration
	// MaxPending forces a rebuild once this many batches are pending.
	// Default: 100.
	MaxPending int
	Logger     *zap.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Debounce <= 0 {
		return
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 4 * c.Debounce
	}
	if c.MaxWait < c.Debounce {
		c.MaxWait = c.Debounce
	}
	if c.MaxPending <= 0 {
		c.MaxPending = 100
	}
}

// Reindexer drives rebuilds from a page's change subscription.
type Reindexer struct {
	src        page.Watcher
	target     Rebuilder
	debounce   time.Duration
	maxWait    time.Duration
	maxPending int
	logger     *zap.Logger
}

// New creates a Reindexer.
func New(src page.Watcher, target Rebuilder, cfg Config) *Reindexer {
	cfg.defaults()
	return &Reindexer{
		src:        src,
		target:     target,
		debounce:   cfg.Debounce,
		maxWait:    cfg.MaxWait,
		maxPending: cfg.MaxPending,
		logger:     cfg.Logger,
	}
}

// Run subscribes to changes, performs the initial scan, then rebuilds on
// every batch that added nodes. It returns when ctx is done or the
// subscription ends.
func (r *Reindexer) Run(ctx context.Context) error {
	// Subscribe before the initial scan so nothing inserted in between is
	// missed.
	changes, err := r.src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: subscribe: %w", err)
	}

	r.rebuild(ctx, "initial")

	// window restarts on every batch; deadline is set by the first pending
	// batch and never moves, so a busy page still gets rebuilt.
	var window, deadline timer
	defer window.stop()
	defer deadline.stop()
	pending := 0

	flush := func(reason string) {
		window.stop()
		deadline.stop()
		pending = 0
		r.rebuild(ctx, reason)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case c, ok := <-changes:
			if !ok {
				if pending > 0 {
					flush("mutation")
				}
				return nil
			}
			if c.Added == 0 {
				continue
			}
			if r.debounce <= 0 {
				r.rebuild(ctx, "mutation")
				continue
			}
			pending++
			if pending >= r.maxPending {
				flush("max_pending")
				continue
			}
			if pending == 1 {
				deadline.reset(r.maxWait)
			}
			window.reset(r.debounce)

		case <-window.C():
			flush("mutation")

		case <-deadline.C():
			flush("max_wait")
		}
	}
}

func (r *Reindexer) rebuild(ctx context.Context, reason string) {
	ix, err := r.target.Rebuild(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("rebuild failed", zap.String("reason", reason), zap.Error(err))
		}
		return
	}
	if ix != nil {
		r.logger.Debug("index rebuilt", zap.String("reason", reason), zap.String("scan", ix.ID))
	}
}

// timer is a restartable debounce window. Its channel is nil while
// inactive, so selecting on it blocks.
type timer struct {
	t *time.Timer
}

func (p *timer) reset(d time.Duration) {
	p.stop()
	p.t = time.NewTimer(d)
}

func (p *timer) stop() {
	if p.t != nil {
		p.t.Stop()
		p.t = nil
	}
}

func (p *timer) C() <-chan time.Time {
	if p.t == nil {
		return nil
	}
	return p.t.C
}
