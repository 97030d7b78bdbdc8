package crawler

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/page"
)

//go:embed observer.js
var observerJS string

//go:embed banner.js
var bannerJS string

const bindingName = "__formfill_changed"

// Watch implements page.Watcher. An in-page MutationObserver reports
// inserted nodes through a Runtime binding; each call becomes one Change.
func (b *Browser) Watch(ctx context.Context) (<-chan page.Change, error) {
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(b.page); err != nil {
		b.logger.Warn("addBinding failed (may already exist)", zap.Error(err))
	}

	ch := make(chan page.Change, 16)
	wctx, cancel := context.WithCancel(ctx)

	wait := b.page.Context(wctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		var msg struct {
			Added int `json:"added"`
		}
		if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
			b.logger.Warn("parse binding payload", zap.Error(err))
			return
		}
		select {
		case ch <- page.Change{Added: msg.Added, At: time.Now()}:
		case <-wctx.Done():
		}
	})

	go func() {
		defer close(ch)
		defer cancel()
		wait()
	}()

	if _, err := b.page.Context(ctx).Eval(observerJS); err != nil {
		cancel()
		return nil, fmt.Errorf("crawler: inject observer: %w", err)
	}
	return ch, nil
}

// ShowBanner implements page.Presenter. The banner removes itself after
// ttl plus its slide-out animation.
func (b *Browser) ShowBanner(ctx context.Context, message string, ttl time.Duration) error {
	if _, err := b.page.Context(ctx).Eval(bannerJS, message, ttl.Milliseconds()); err != nil {
		return fmt.Errorf("crawler: show banner: %w", err)
	}
	return nil
}
