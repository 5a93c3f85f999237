// Package reader drives the e-reader's iframe content: locating it,
// forcing lazy pages to materialize, confirming a page actually rendered,
// and printing the result to PDF at the content's physical size.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ztrue/tracerr"

	"github.com/dkorbel/svx2pdf/internal/browser"
	"github.com/dkorbel/svx2pdf/internal/selectors"
)

// Sentinel errors for structural absence conditions.
var (
	ErrNoIframe  = errors.New("no iframe found on reader page")
	ErrZeroPages = errors.New("reader reports zero pages: book unavailable or access issue")
)

const (
	// capture viewport; lazy loaders serve higher resolution on big screens
	captureViewportW = 2800
	captureViewportH = 2100

	// settle delay after scrolling each page index into view
	scrollSettle = 200 * time.Millisecond
)

// Session holds the iframe URL, the page count, and the dedicated tab used
// to render iframe content directly. The outer reader frame is never used
// for capture.
type Session struct {
	IframeURL string
	PageCount int

	tab *browser.Tab
	cfg selectors.Config
}

// Open navigates to the reader for page 1, extracts the embedded iframe
// URL, opens the capture tab on it, and determines the total page count.
// Zero detected pages triggers exactly one reload before failing.
func Open(bs *browser.Session, cfg selectors.Config, docID string) (*Session, error) {
	navCtx, cancel := context.WithTimeout(bs.Ctx(), 30*time.Second)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(cfg.ReaderURL(docID, 1)),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	cancel()
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("opening reader for %s: %w", docID, err))
	}

	iframeURL, err := extractIframeURL(bs.Ctx(), cfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("reader iframe located", "url", iframeURL)

	tab, err := bs.NewTab(captureViewportW, captureViewportH)
	if err != nil {
		return nil, err
	}

	if err := tab.Navigate(iframeURL, 45*time.Second); err != nil {
		tab.Close()
		return nil, tracerr.Wrap(fmt.Errorf("loading iframe content: %w", err))
	}

	count, err := resolvePageCount(
		func() (int, error) { return countPages(tab.Ctx(), cfg) },
		func() error { return reloadTab(tab) },
	)
	if err != nil {
		tab.Close()
		return nil, err
	}

	return &Session{
		IframeURL: iframeURL,
		PageCount: count,
		tab:       tab,
		cfg:       cfg,
	}, nil
}

// Tab exposes the iframe-content browsing context for capture.
func (s *Session) Tab() *browser.Tab {
	return s.tab
}

// Close tears down the capture tab. Safe to call more than once.
func (s *Session) Close() {
	if s.tab != nil {
		s.tab.Close()
	}
}

// ScrollToLoad scrolls every page index into view in ascending order with a
// short settle delay, so lazy-loaded page content materializes. Later pages
// may depend on earlier pages having been scrolled past, hence the strict
// ordering. progress may be nil.
func (s *Session) ScrollToLoad(progress func(pageIndex int)) error {
	for i := 0; i < s.PageCount; i++ {
		script := fmt.Sprintf(`(() => {
			const c = document.querySelector(%q);
			if (!c || !c.children[%d]) return false;
			c.children[%d].scrollIntoView({block: 'start'});
			return true;
		})()`, s.cfg.PaginationContainer, i, i)

		var ok bool
		scrollCtx, cancel := context.WithTimeout(s.tab.Ctx(), 5*time.Second)
		err := chromedp.Run(scrollCtx, chromedp.Evaluate(script, &ok))
		cancel()
		if err != nil {
			return tracerr.Wrap(fmt.Errorf("scrolling page %d into view: %w", i+1, err))
		}
		if !ok {
			slog.Debug("page element missing during scroll pass", "index", i)
		}
		time.Sleep(scrollSettle)
		if progress != nil {
			progress(i)
		}
	}
	return nil
}

// resolvePageCount applies the zero-page retry policy: one reload, then
// fatal. Kept separate from the browser so the retry count is testable.
func resolvePageCount(count func() (int, error), reload func() error) (int, error) {
	n, err := count()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return n, nil
	}

	slog.Debug("zero pages detected, reloading iframe context once")
	if err := reload(); err != nil {
		return 0, err
	}
	n, err = count()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, tracerr.Wrap(ErrZeroPages)
	}
	return n, nil
}

func extractIframeURL(ctx context.Context, cfg selectors.Config) (string, error) {
	for _, sel := range cfg.IframeSelectors {
		script := fmt.Sprintf(`(() => {
			const f = document.querySelector(%q);
			return f && f.src ? f.src : "";
		})()`, sel)

		var src string
		evalCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := chromedp.Run(evalCtx, chromedp.Evaluate(script, &src))
		cancel()
		if err == nil && src != "" {
			return src, nil
		}
	}
	return "", tracerr.Wrap(ErrNoIframe)
}

func countPages(ctx context.Context, cfg selectors.Config) (int, error) {
	script := fmt.Sprintf(`(() => {
		const c = document.querySelector(%q);
		return c ? c.children.length : 0;
	})()`, cfg.PaginationContainer)

	var n int
	evalCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, &n)); err != nil {
		return 0, tracerr.Wrap(err)
	}
	return n, nil
}

func reloadTab(tab *browser.Tab) error {
	ctx, cancel := context.WithTimeout(tab.Ctx(), 45*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return tracerr.Wrap(err)
	}
	return nil
}
