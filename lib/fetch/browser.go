package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserStrategy drives a headless Chrome over the devtools protocol.
// Heaviest strategy, last in the default order, for pages that refuse
// every plain HTTP client or fill their markup in with scripts.
type BrowserStrategy struct {
	settle time.Duration
}

// NewBrowserStrategy returns a browser strategy that waits `settle`
// after the load event before serializing the document, scripts on
// these pages keep rewriting the list for a moment after load.
func NewBrowserStrategy(settle time.Duration) *BrowserStrategy {
	return &BrowserStrategy{settle: settle}
}

func (s *BrowserStrategy) Name() string { return "browser" }

// Fetch launches a fresh browser and closes it afterwards, so no
// session state leaks between resources.
func (s *BrowserStrategy) Fetch(ctx context.Context, res Resource) (*Result, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		NoSandbox(true)
	wsUrl, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	b := rod.New().ControlURL(wsUrl).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer b.Close()

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("open stealth page: %w", err)
	}
	page = page.Context(ctx)

	if err := page.Navigate(res.URL); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if s.settle > 0 {
		select {
		case <-time.After(s.settle):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	obj, err := page.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	html := obj.Value.Str()
	if html == "" {
		return nil, fmt.Errorf("empty document")
	}

	screenshot, err := page.Screenshot(true, nil)
	if err != nil {
		slog.WarnContext(ctx, "screenshot failed", "url", res.URL, "err", err)
		screenshot = nil
	}

	return &Result{
		Body:       strings.ToValidUTF8(html, "�"),
		Strategy:   s.Name(),
		Screenshot: screenshot,
	}, nil
}
