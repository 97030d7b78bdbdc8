package autofill

import (
	"context"

	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/detect"
)

// Outcome is the result of one category in a fill pass.
type Outcome string

const (
	Filled  Outcome = "filled"
	Skipped Outcome = "skipped" // no candidate, or optional value absent
	Failed  Outcome = "failed"  // the write did not happen
)

// Report summarises a fill pass.
type Report struct {
	ScanID   string
	Outcomes map[detect.Category]Outcome
}

// Filled returns the number of categories written.
func (r Report) Filled() int {
	n := 0
	for _, o := range r.Outcomes {
		if o == Filled {
			n++
		}
	}
	return n
}

// Fill rescans the page and writes p into the first candidate of each
// category. Misses and failed writes are recorded in the report and never
// abort the pass.
func (e *Engine) Fill(ctx context.Context, p Persona) Report {
	ix, err := e.Rebuild(ctx)
	if err != nil {
		e.logger.Warn("scan before fill failed, using previous index", zap.Error(err))
		ix = e.Index()
	}

	rep := Report{Outcomes: make(map[detect.Category]Outcome, len(detect.Categories))}
	if ix != nil {
		rep.ScanID = ix.ID
	}

	for _, cat := range detect.Categories {
		value, optional := valueFor(p, cat)
		field, ok := ix.First(cat)
		switch {
		case !ok, optional && value == "":
			rep.Outcomes[cat] = Skipped
		case e.injector.Inject(ctx, field.Element, value):
			rep.Outcomes[cat] = Filled
		default:
			rep.Outcomes[cat] = Failed
		}
		e.logger.Debug("fill",
			zap.String("category", string(cat)),
			zap.String("outcome", string(rep.Outcomes[cat])))
	}

	e.logger.Info("fill pass complete",
		zap.String("scan", rep.ScanID),
		zap.Int("filled", rep.Filled()))

	e.showFeedback(ctx)
	return rep
}

// valueFor returns the persona value for a category and whether the
// category is optional in the persona.
func valueFor(p Persona, cat detect.Category) (value string, optional bool) {
	switch cat {
	case detect.Name:
		return p.Name, false
	case detect.Email:
		return p.Email, false
	case detect.Phone:
		return p.Phone, true
	case detect.Address:
		return p.Address, true
	}
	return "", true
}

func (e *Engine) showFeedback(ctx context.Context) {
	if !e.feedback.Enabled || e.presenter == nil {
		return
	}
	if err := e.presenter.ShowBanner(ctx, e.feedback.Message, e.feedback.Duration); err != nil {
		e.logger.Debug("banner not shown", zap.Error(err))
	}
}
