// Package executor writes values into page elements so that the host page's
// own change detection observes them.
package executor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/page"
)

// Protocol is the injection plan. Frameworks that shadow the value setter
// and cache state on the first observed event only pick up a write that is
// bracketed by notifications: input, change and blur before the write,
// then the prototype-level write, then input again so listeners re-read the
// current value. The order must not change.
var Protocol = []page.Step{
	page.Dispatch("input"),
	page.Dispatch("change"),
	page.Dispatch("blur"),
	page.SetValue(),
	page.Dispatch("input"),
}

// Injector applies Protocol to page elements.
type Injector struct {
	logger *zap.Logger
}

// New creates an Injector. A nil logger discards output.
func New(logger *zap.Logger) *Injector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Injector{logger: logger}
}

// Inject writes value into el. It returns false when el or value is absent
// or the write could not be carried out; it never fails the caller.
func (in *Injector) Inject(ctx context.Context, el page.Element, value string) bool {
	if el == nil || value == "" {
		return false
	}

	steps := make([]page.Step, len(Protocol))
	copy(steps, Protocol)

	if err := el.Apply(ctx, steps, value); err != nil {
		if errors.Is(err, page.ErrDetached) {
			in.logger.Debug("element detached before write", zap.String("element", el.Key()))
		} else {
			in.logger.Debug("write failed", zap.String("element", el.Key()), zap.Error(err))
		}
		return false
	}
	return true
}
