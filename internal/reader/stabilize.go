package reader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/fatih/color"
	"github.com/ztrue/tracerr"

	"github.com/dkorbel/svx2pdf/internal/selectors"
)

// ContentKind is the kind of element the stabilizer accepted as the page's
// visual content.
type ContentKind string

const (
	KindNone       ContentKind = ""
	KindImage      ContentKind = "image"
	KindCanvas     ContentKind = "canvas"
	KindBackground ContentKind = "background"
)

// RenderResult is the per-page stabilization outcome. Computed fresh per
// page; page content and dimensions vary across a book.
type RenderResult struct {
	Rendered bool
	Kind     ContentKind
	PxWidth  int
	PxHeight int
	WidthIn  float64
	HeightIn float64
	Scale    float64
}

const (
	stabilizeAttempts = 30
	stabilizeInterval = 200 * time.Millisecond

	// intrinsic area above which an element counts as page content
	largeContentArea = 1500 * 1500
	// dimension floor below which a candidate is a placeholder
	minContentDim = 10
)

// candidate mirrors the JSON the detection script returns.
type candidate struct {
	Found    bool        `json:"found"`
	Kind     ContentKind `json:"kind"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Complete bool        `json:"complete"`
	// three interior RGBA samples for canvases; null when unreadable
	Samples [][]int `json:"samples"`
}

// Stabilize blocks until the current page's visual content is confirmed
// rendered, or the retry budget runs out. Exhaustion is a soft failure by
// default (the emitted page may be blank); strict mode turns it into an
// error.
func Stabilize(ctx context.Context, cfg selectors.Config, explicitScale float64, strict bool) (RenderResult, error) {
	// custom glyph-mapped fonts must resolve before any layout
	// measurement is trustworthy
	if err := forceFonts(ctx); err != nil {
		slog.Debug("font readiness wait failed", "err", err)
	}

	if err := stripClippingStyles(ctx); err != nil {
		slog.Debug("style strip failed", "err", err)
	}

	warnOnAuthWall(ctx, cfg)

	for attempt := 0; attempt < stabilizeAttempts; attempt++ {
		nudgeScroll(ctx)
		decodeImages(ctx)

		cand, err := detectCandidate(ctx)
		if err != nil {
			slog.Debug("candidate detection failed", "attempt", attempt, "err", err)
			time.Sleep(stabilizeInterval)
			continue
		}

		if validate(cand) {
			w, h := PhysicalSize(cand.Width, cand.Height)
			return RenderResult{
				Rendered: true,
				Kind:     cand.Kind,
				PxWidth:  cand.Width,
				PxHeight: cand.Height,
				WidthIn:  w,
				HeightIn: h,
				Scale:    EffectiveScale(explicitScale, cand.Width),
			}, nil
		}

		time.Sleep(stabilizeInterval)
	}

	if strict {
		return RenderResult{}, tracerr.New("page content never stabilized within budget")
	}
	color.Yellow("WARNING: page content never confirmed rendered; output page may be blank")
	// carry the caller's scale so dimension backfill does not replace an
	// explicit value with a computed one
	return RenderResult{Rendered: false, Scale: explicitScale}, nil
}

// validate applies the per-kind acceptance rules.
func validate(c candidate) bool {
	if !c.Found || c.Width <= minContentDim || c.Height <= minContentDim {
		return false
	}
	switch c.Kind {
	case KindImage:
		return c.Complete
	case KindCanvas:
		if c.Samples == nil {
			// tainted canvas: sampling impossible, cannot prove blankness
			slog.Debug("canvas samples unreadable, accepting on dimensions")
			return true
		}
		return !AllNearBlank(toSamples(c.Samples))
	case KindBackground:
		return true
	default:
		return false
	}
}

func toSamples(raw [][]int) []Sample {
	out := make([]Sample, 0, len(raw))
	for _, px := range raw {
		if len(px) < 4 {
			continue
		}
		out = append(out, Sample{
			R: uint8(px[0]), G: uint8(px[1]), B: uint8(px[2]), A: uint8(px[3]),
		})
	}
	return out
}

// forceFonts awaits the document font-loading readiness signal.
func forceFonts(ctx context.Context) error {
	fontCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return chromedp.Run(fontCtx, chromedp.Evaluate(
		`document.fonts.ready.then(() => true)`,
		nil,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	))
}

// stripClippingStyles removes CSS that would clip or cap content in
// printed output: zoom, overflow, max sizes and clip paths on the root,
// the body, and every div whose computed style currently constrains it.
// Canvases and SVGs are widened the same way.
func stripClippingStyles(ctx context.Context) error {
	const script = `(() => {
		const strip = (el) => {
			el.style.zoom = 'normal';
			el.style.overflow = 'visible';
			el.style.overflowX = 'visible';
			el.style.overflowY = 'visible';
			el.style.maxWidth = 'none';
			el.style.maxHeight = 'none';
			el.style.clipPath = 'none';
		};
		strip(document.documentElement);
		if (document.body) strip(document.body);
		for (const div of document.querySelectorAll('div')) {
			const cs = window.getComputedStyle(div);
			if (cs.overflow !== 'visible' || cs.overflowX !== 'visible' ||
			    cs.overflowY !== 'visible' || cs.maxWidth !== 'none' ||
			    cs.maxHeight !== 'none' || cs.clipPath !== 'none' ||
			    (cs.zoom && cs.zoom !== '1' && cs.zoom !== 'normal')) {
				strip(div);
			}
		}
		for (const el of document.querySelectorAll('canvas, svg')) {
			el.style.maxWidth = 'none';
			el.style.maxHeight = 'none';
		}
		return true;
	})()`

	evalCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return chromedp.Run(evalCtx, chromedp.Evaluate(script, nil))
}

// nudgeScroll moves the scroll position slightly to trigger lazy decoders.
func nudgeScroll(ctx context.Context) {
	nudgeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = chromedp.Run(nudgeCtx, chromedp.Evaluate(
		`window.scrollBy(0, 40); window.scrollBy(0, -40); true`, nil))
}

// decodeImages force-decodes all image elements. Cross-origin and data-URI
// images may refuse; failures are silent.
func decodeImages(ctx context.Context) {
	decodeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = chromedp.Run(decodeCtx, chromedp.Evaluate(
		`Promise.allSettled(Array.from(document.images).map(i => i.decode().catch(() => {}))).then(() => true)`,
		nil,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	))
}

// detectCandidate enumerates rendering candidates (images, canvases,
// background divs above the large-content threshold) and returns the
// largest-area one, with canvas pixel samples for blankness validation.
func detectCandidate(ctx context.Context) (candidate, error) {
	script := fmt.Sprintf(`(() => {
		const minArea = %d;
		const rank = {image: 0, canvas: 1, background: 2};
		const candidates = [];

		for (const img of document.images) {
			const area = img.naturalWidth * img.naturalHeight;
			if (area > minArea) {
				candidates.push({
					kind: 'image',
					width: img.naturalWidth,
					height: img.naturalHeight,
					complete: img.complete,
					el: img,
				});
			}
		}

		for (const cv of document.querySelectorAll('canvas')) {
			if (cv.width * cv.height > minArea) {
				candidates.push({kind: 'canvas', width: cv.width, height: cv.height, complete: true, el: cv});
			}
		}

		for (const div of document.querySelectorAll('div')) {
			const cs = window.getComputedStyle(div);
			if (cs.backgroundImage && cs.backgroundImage !== 'none') {
				const r = div.getBoundingClientRect();
				if (r.width * r.height > minArea) {
					candidates.push({kind: 'background', width: Math.round(r.width), height: Math.round(r.height), complete: true, el: div});
				}
			}
		}

		if (candidates.length === 0) return {found: false};

		candidates.sort((a, b) => {
			const d = b.width * b.height - a.width * a.height;
			return d !== 0 ? d : rank[a.kind] - rank[b.kind];
		});
		const best = candidates[0];

		let samples = null;
		if (best.kind === 'canvas') {
			try {
				const cx = best.el.getContext('2d');
				const pts = [
					[Math.floor(best.width / 4), Math.floor(best.height / 4)],
					[Math.floor(best.width / 2), Math.floor(best.height / 2)],
					[Math.floor(3 * best.width / 4), Math.floor(3 * best.height / 4)],
				];
				samples = pts.map(([x, y]) => Array.from(cx.getImageData(x, y, 1, 1).data));
			} catch (e) {
				samples = null;
			}
		}

		return {
			found: true,
			kind: best.kind,
			width: best.width,
			height: best.height,
			complete: best.complete,
			samples: samples,
		};
	})()`, largeContentArea)

	var cand candidate
	evalCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, &cand)); err != nil {
		return candidate{}, tracerr.Wrap(err)
	}
	return cand, nil
}

// warnOnAuthWall surfaces the platform's partial-access message without
// aborting; the capture proceeds on whatever content is served.
func warnOnAuthWall(ctx context.Context, cfg selectors.Config) {
	var body string
	evalCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(
		`document.body ? document.body.innerText : ""`, &body)); err != nil {
		return
	}
	if strings.Contains(strings.ToLower(body), strings.ToLower(cfg.AuthWallText)) {
		color.Yellow("WARNING: the reader is asking for authentication; captured pages may be truncated")
	}
}
