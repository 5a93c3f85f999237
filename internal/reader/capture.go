package reader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ztrue/tracerr"

	"github.com/dkorbel/svx2pdf/internal/selectors"
)

// contentDims mirrors the size-detection script's JSON result.
type contentDims struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Source string `json:"source"`
}

// ContentSize determines the representative page size in pixels, using the
// same priority as candidate detection: largest image intrinsic size, then
// a page-like element's bounding box, then the viewport as last resort.
func ContentSize(ctx context.Context, cfg selectors.Config) (int, int, error) {
	script := fmt.Sprintf(`(() => {
		let best = null;
		for (const img of document.images) {
			const area = img.naturalWidth * img.naturalHeight;
			if (img.complete && area > 100 && (!best || area > best.width * best.height)) {
				best = {width: img.naturalWidth, height: img.naturalHeight, source: 'image'};
			}
		}
		if (best) return best;

		const container = document.querySelector(%q);
		if (container) {
			for (const child of container.children) {
				const r = child.getBoundingClientRect();
				if (r.width > 100 && r.height > 100) {
					return {width: Math.round(r.width), height: Math.round(r.height), source: 'page-element'};
				}
			}
		}

		return {width: window.innerWidth, height: window.innerHeight, source: 'viewport'};
	})()`, cfg.PaginationContainer)

	var dims contentDims
	evalCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, &dims)); err != nil {
		return 0, 0, tracerr.Wrap(err)
	}
	slog.Debug("content size detected", "w", dims.Width, "h", dims.Height, "source", dims.Source)
	return dims.Width, dims.Height, nil
}

// PrintToPDF prints the current document with the paper size set to the
// content's physical size, zero margins, and backgrounds enabled. The page
// frame follows the source aspect ratio instead of clipping to a standard
// paper size.
func PrintToPDF(ctx context.Context, res RenderResult) ([]byte, error) {
	if res.WidthIn <= 0 || res.HeightIn <= 0 {
		return nil, tracerr.New("print requested with no physical page size")
	}

	var buf []byte
	printCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	err := chromedp.Run(printCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPaperWidth(res.WidthIn).
			WithPaperHeight(res.HeightIn).
			WithMarginTop(0).
			WithMarginRight(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithPrintBackground(true).
			WithScale(res.Scale).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("print to PDF: %w", err))
	}
	return buf, nil
}

// CaptureDocument prints the whole assembled scroll container in one call.
// All page indices must already have been scrolled into view and
// stabilized.
func CaptureDocument(ctx context.Context, cfg selectors.Config, res RenderResult) ([]byte, error) {
	res = fillDims(ctx, cfg, res)
	return PrintToPDF(ctx, res)
}

// CaptureSinglePage isolates one page index (hiding its siblings and the
// navigation sidebar) and prints it alone. The isolation is reverted
// afterwards so the tab can serve further captures.
func CaptureSinglePage(ctx context.Context, cfg selectors.Config, pageIndex int, res RenderResult) ([]byte, error) {
	if err := isolatePage(ctx, cfg, pageIndex); err != nil {
		return nil, err
	}

	res = fillDims(ctx, cfg, res)
	buf, err := PrintToPDF(ctx, res)

	if rerr := showAllPages(ctx, cfg); rerr != nil {
		slog.Debug("could not revert page isolation", "err", rerr)
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// fillDims backfills missing dimensions from content-size detection, so a
// soft-failed stabilization still prints at a plausible size.
func fillDims(ctx context.Context, cfg selectors.Config, res RenderResult) RenderResult {
	if res.PxWidth > 0 && res.PxHeight > 0 {
		return res
	}
	w, h, err := ContentSize(ctx, cfg)
	if err != nil || w <= 0 || h <= 0 {
		slog.Debug("content size fallback failed", "err", err)
		return res
	}
	return withContentDims(res, w, h)
}

// withContentDims applies detected pixel dimensions to a result, deriving
// the physical size and the print scale. A scale already carried on the
// result (an explicit override) is preserved; only the sentinel gets a
// computed value.
func withContentDims(res RenderResult, w, h int) RenderResult {
	res.PxWidth, res.PxHeight = w, h
	res.WidthIn, res.HeightIn = PhysicalSize(w, h)
	res.Scale = EffectiveScale(res.Scale, w)
	return res
}

func isolatePage(ctx context.Context, cfg selectors.Config, pageIndex int) error {
	script := fmt.Sprintf(`(() => {
		const c = document.querySelector(%q);
		if (!c || !c.children[%d]) return false;
		for (let i = 0; i < c.children.length; i++) {
			c.children[i].style.display = i === %d ? '' : 'none';
		}
		for (const nav of document.querySelectorAll(%q)) {
			nav.style.display = 'none';
		}
		c.children[%d].scrollIntoView({block: 'start'});
		return true;
	})()`, cfg.PaginationContainer, pageIndex, pageIndex, cfg.SidebarSelector, pageIndex)

	var ok bool
	evalCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, &ok)); err != nil {
		return tracerr.Wrap(err)
	}
	if !ok {
		return tracerr.Wrap(fmt.Errorf("page index %d not present for isolation", pageIndex))
	}
	return nil
}

func showAllPages(ctx context.Context, cfg selectors.Config) error {
	script := fmt.Sprintf(`(() => {
		const c = document.querySelector(%q);
		if (c) {
			for (const child of c.children) child.style.display = '';
		}
		for (const nav of document.querySelectorAll(%q)) {
			nav.style.display = '';
		}
		return true;
	})()`, cfg.PaginationContainer, cfg.SidebarSelector)

	evalCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, nil)); err != nil {
		return tracerr.Wrap(err)
	}
	return nil
}
