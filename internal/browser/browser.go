// Package browser owns the headless Chrome process used for the whole run.
// The outer session page lives as long as the run; iframe-content capture
// happens in separate tabs created and closed per capture unit.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ztrue/tracerr"
)

// Session wraps the allocator and the primary browser context. The two
// cancels are paired and released together in Close.
type Session struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	debug         bool
}

// New starts a headless Chrome and returns a live Session. The caller must
// call Close regardless of how the run ends.
func New(ctx context.Context, debug bool) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !debug),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("blink-settings", "imagesEnabled=true"),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	logf := func(string, ...interface{}) {}
	if debug {
		logf = func(format string, args ...interface{}) {
			slog.Debug("chromedp", "msg", strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
		}
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logf))

	// start the browser eagerly so errors surface here, not mid-pipeline
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, tracerr.Wrap(err)
	}

	return &Session{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		debug:         debug,
	}, nil
}

// Ctx is the primary (outer reader) browsing context.
func (s *Session) Ctx() context.Context {
	return s.browserCtx
}

// Close tears down the browser and the allocator. Safe to call more than once.
func (s *Session) Close() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Cookies returns the full cookie jar of the session.
func (s *Session) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return cookies, nil
}

// Tab is a secondary browsing context with its own lifecycle, peer to the
// session page rather than a child of it.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTab opens a fresh tab sharing the session's cookie jar, sized to the
// given viewport. Lazy loaders hand out higher-resolution assets on large
// viewports, so captures use 2800x2100.
func (s *Session) NewTab(viewportW, viewportH int64) (*Tab, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)

	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(viewportW, viewportH),
	); err != nil {
		tabCancel()
		return nil, tracerr.Wrap(err)
	}

	return &Tab{ctx: tabCtx, cancel: tabCancel}, nil
}

// Ctx is the tab's chromedp context.
func (t *Tab) Ctx() context.Context {
	return t.ctx
}

// Close releases the tab. Safe to call more than once.
func (t *Tab) Close() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Navigate loads a URL in the tab and waits for the body to be ready,
// bounded by the given timeout. Navigation timeouts are soft failures at
// this level; the caller decides what to do with the error.
func (t *Tab) Navigate(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return tracerr.Wrap(err)
	}
	return nil
}
