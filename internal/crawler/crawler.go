// Package crawler drives a Chromium tab over CDP and exposes it as a
// page.Document, page.Watcher and page.Presenter.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Options configures the browser and page.
type Options struct {
	Bin        string // Chromium binary; looked up when empty
	Remote     string // DevTools WebSocket URL of a running browser
	Headless   bool
	Stealth    bool
	Width      int
	Height     int
	Timeout    time.Duration
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	Root       string // CSS selector limiting scans; whole document when empty
	Logger     *zap.Logger
}

func (o *Options) defaults() {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Width == 0 {
		o.Width = 1280
	}
	if o.Height == 0 {
		o.Height = 720
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Browser wraps the Rod browser and the page being filled.
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	root    string
	logger  *zap.Logger
	scans   *generations[*rod.Element]
}

// Open launches (or connects to) a browser and navigates to url.
func Open(ctx context.Context, url string, opts Options) (*Browser, error) {
	opts.defaults()
	log := opts.Logger

	controlURL := opts.Remote
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		} else if path, ok := launcher.LookPath(); ok {
			l = l.Bin(path)
		}
		if opts.ProfileDir != "" {
			l = l.UserDataDir(opts.ProfileDir)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("crawler: launch: %w", err)
		}
		controlURL = u
		log.Debug("launched browser", zap.String("control_url", u))
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("crawler: connect: %w", err)
	}

	var (
		p   *rod.Page
		err error
	)
	if opts.Stealth {
		p, err = stealth.Page(browser)
	} else {
		p, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("crawler: create page: %w", err)
	}

	b := &Browser{browser: browser, page: p, root: opts.Root, logger: log}
	b.scans = &generations[*rod.Element]{keep: keepScans, release: b.release}

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.Warn("set viewport failed", zap.Error(err))
	}

	nav := p.Timeout(opts.Timeout)
	if err := nav.Navigate(url); err != nil {
		b.Close()
		return nil, fmt.Errorf("crawler: navigate %s: %w", url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		log.Warn("wait load timeout", zap.String("url", url), zap.Error(err))
	}

	// Don't hang on persistent connections (WebSockets, polling).
	p.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	return b, nil
}

// Close cleans up browser resources.
func (b *Browser) Close() {
	if b.scans != nil {
		b.scans.drain()
	}
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
}

// Page returns the underlying Rod page.
func (b *Browser) Page() *rod.Page {
	return b.page
}

// URL returns the page's current location.
func (b *Browser) URL(ctx context.Context) (string, error) {
	res, err := b.page.Context(ctx).Eval(`() => window.location.href`)
	if err != nil {
		return "", fmt.Errorf("crawler: read location: %w", err)
	}
	return res.Value.Str(), nil
}

// WaitForInputs polls until at least one input or textarea is rendered or
// timeout expires. Client-rendered forms may appear well after load.
func (b *Browser) WaitForInputs(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		res, err := b.page.Context(ctx).Eval(`() => {
			let visible = 0;
			document.querySelectorAll('input:not([type="hidden"]), textarea').forEach(el => {
				if (el.offsetParent) visible++;
			});
			return visible;
		}`)
		if err == nil && res.Value.Int() > 0 {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(200 * time.Millisecond):
		}
	}
	return false
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("crawler: screenshot: %w", err)
	}
	return data, nil
}
