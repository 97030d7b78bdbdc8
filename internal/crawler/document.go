package crawler

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/page"
)

//go:embed probe.js
var probeJS string

//go:embed apply.js
var applyJS string

const (
	candidateSelector = "input, textarea"
	releaseTimeout    = 2 * time.Second
)

// Candidates implements page.Document. Elements that vanish while being
// probed are skipped; the next rebuild sees the settled page.
func (b *Browser) Candidates(ctx context.Context) ([]page.Candidate, error) {
	p := b.page.Context(ctx)

	var (
		els rod.Elements
		err error
	)
	if b.root == "" {
		els, err = p.Elements(candidateSelector)
	} else {
		var roots rod.Elements
		roots, err = p.Elements(b.root)
		if err == nil && len(roots) > 0 {
			els, err = roots.First().Elements(candidateSelector)
		}
		for _, r := range roots {
			b.release(r)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("crawler: query candidates: %w", err)
	}

	out := make([]page.Candidate, 0, len(els))
	kept := make([]*rod.Element, 0, len(els))

	for _, el := range els {
		res, err := el.Eval(probeJS)
		if err != nil {
			b.logger.Debug("probe failed", zap.Error(err))
			b.release(el)
			continue
		}
		kept = append(kept, el)
		v := res.Value

		labels := make([]string, 0, len(v.Get("labels").Arr()))
		for _, l := range v.Get("labels").Arr() {
			labels = append(labels, l.Str())
		}

		out = append(out, page.Candidate{
			Element:     &Element{el: el, key: v.Get("key").Str()},
			Tag:         v.Get("tag").Str(),
			ID:          v.Get("id").Str(),
			Name:        v.Get("name").Str(),
			Placeholder: v.Get("placeholder").Str(),
			Type:        v.Get("type").Str(),
			Labels: page.LabelSources{
				Associated:         labels,
				Parent:             v.Get("parentLabel").Str(),
				PrevSibling:        v.Get("prev").Str(),
				PrevSiblingIsLabel: v.Get("prevIsLabel").Bool(),
			},
			Render: page.Render{
				Width:      v.Get("width").Num(),
				Height:     v.Get("height").Num(),
				Visibility: v.Get("visibility").Str(),
				Display:    v.Get("display").Str(),
				Disabled:   v.Get("disabled").Bool(),
				ReadOnly:   v.Get("readOnly").Bool(),
			},
		})
	}

	b.scans.push(kept)
	return out, nil
}

// release frees the remote object behind el. Handles from older scans are
// released here; Apply on one fails and the injection reports false.
func (b *Browser) release(el *rod.Element) {
	// The handle may carry the context of a scan that has since finished.
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := el.Context(ctx).Release(); err != nil {
		b.logger.Debug("release element", zap.Error(err))
	}
}

// Element is a CDP remote-object handle to one input or textarea.
type Element struct {
	el  *rod.Element
	key string
}

// Key implements page.Element.
func (e *Element) Key() string { return e.key }

// Apply implements page.Element. The plan runs in a single evaluation, so
// no host page script runs between steps.
func (e *Element) Apply(ctx context.Context, steps []page.Step, value string) error {
	res, err := e.el.Context(ctx).Eval(applyJS, steps, value)
	if err != nil {
		return fmt.Errorf("crawler: apply to %s: %w", e.key, err)
	}
	if !res.Value.Bool() {
		return page.ErrDetached
	}
	return nil
}
