package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const readyPollInterval = 100 * time.Millisecond

// ChromeDriver renders pages in headless Chrome. Every session runs its own
// browser process, closed with the session.
type ChromeDriver struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

func NewChromeDriver(ctx context.Context, execPath string) *ChromeDriver {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &ChromeDriver{allocCtx: allocCtx, cancel: cancel}
}

func (d *ChromeDriver) NewSession(_ context.Context) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(d.allocCtx)

	// The first Run allocates the browser and must not use a derived
	// context: cancelling that would kill the whole browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &chromeSession{tabCtx: tabCtx, cancel: cancel}, nil
}

// Close shuts down the allocator and every browser still running under it.
func (d *ChromeDriver) Close() {
	d.cancel()
}

type chromeSession struct {
	tabCtx context.Context
	cancel context.CancelFunc
	doc    *Document
}

func (s *chromeSession) Navigate(ctx context.Context, target string) error {
	s.doc = nil
	if err := runWithin(ctx, s.tabCtx, 0, chromedp.Navigate(target)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, target, err)
	}
	return nil
}

func (s *chromeSession) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	var (
		html     string
		location string
	)

	err := runWithin(ctx, s.tabCtx, timeout,
		chromedp.ActionFunc(waitComplete),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}

	base, _ := url.Parse(location)
	doc, err := ParseDocument(strings.NewReader(html), base)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	s.doc = doc

	return nil
}

func (s *chromeSession) FindAll(selector string) ([]Element, error) {
	if s.doc == nil {
		return nil, ErrNotReady
	}
	return s.doc.FindAll(selector)
}

func (s *chromeSession) Close() error {
	s.cancel()
	s.doc = nil
	return nil
}

func waitComplete(ctx context.Context) error {
	for {
		var state string
		if err := chromedp.Evaluate(`document.readyState`, &state).Do(ctx); err != nil {
			return err
		}
		if state == "complete" {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}

// runWithin runs actions on the tab, bounded by both the caller's context and
// timeout (when non-zero). Cancelling the derived context aborts the actions
// without closing the tab.
func runWithin(ctx, tabCtx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()

	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}
