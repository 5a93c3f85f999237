// Package catalog probes the platform catalog page for a document and
// classifies the book's availability. Gathering the page facts needs a
// browser; the classification itself is a pure function over a Snapshot so
// the decision order stays testable.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/dkorbel/svx2pdf/internal/browser"
	"github.com/dkorbel/svx2pdf/internal/selectors"
)

// Status is the terminal classification of a catalog probe.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusRemoved
	StatusAvailableSoon
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "FOUND"
	case StatusRemoved:
		return "REMOVED"
	case StatusAvailableSoon:
		return "AVAILABLE_SOON"
	default:
		return "NOT_FOUND"
	}
}

// Snapshot captures the observable facts of one catalog page load.
type Snapshot struct {
	NavFailed          bool
	HTTPStatus         int64
	FinalURL           string
	RemovedVisible     bool
	RemovedText        string
	UnavailableVisible bool
	BodyText           string
	Title              string
}

// Classify applies the availability decision order. First match wins:
// removal and soon markers are checked before the title-presence success
// path, since a removed book's page may still carry stale title markup.
func Classify(snap Snapshot, cfg selectors.Config) Status {
	if snap.NavFailed || snap.HTTPStatus < http.StatusOK || snap.HTTPStatus >= http.StatusMultipleChoices {
		return StatusNotFound
	}
	lowerURL := strings.ToLower(snap.FinalURL)
	for _, pat := range cfg.ErrorURLPatterns {
		if strings.Contains(lowerURL, strings.ToLower(pat)) {
			return StatusNotFound
		}
	}
	if snap.RemovedVisible || strings.Contains(snap.RemovedText, cfg.RemovedText) {
		return StatusRemoved
	}
	if snap.UnavailableVisible {
		return StatusRemoved
	}
	if strings.Contains(snap.BodyText, cfg.AvailableSoonText) {
		return StatusAvailableSoon
	}
	if strings.TrimSpace(snap.Title) != "" {
		return StatusFound
	}
	return StatusNotFound
}

// Probe loads the catalog page for docID and returns its Status along with
// the title, when one was found. The probe is read-only and idempotent.
func Probe(session *browser.Session, cfg selectors.Config, docID string) (Status, string, error) {
	snap := gather(session, cfg, docID)
	status := Classify(snap, cfg)
	slog.Debug("catalog probe",
		"docid", docID,
		"status", status.String(),
		"http", snap.HTTPStatus,
		"title", snap.Title,
	)
	return status, strings.TrimSpace(snap.Title), nil
}

func gather(session *browser.Session, cfg selectors.Config, docID string) Snapshot {
	var snap Snapshot

	ctx, cancel := context.WithTimeout(session.Ctx(), 30*time.Second)
	defer cancel()

	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(cfg.CatalogURL(docID)))
	if err != nil {
		slog.Debug("catalog navigation failed", "err", err)
		snap.NavFailed = true
		return snap
	}
	if resp != nil {
		snap.HTTPStatus = resp.Status
	}

	_ = chromedp.Run(ctx, chromedp.Location(&snap.FinalURL))

	// page facts; each read is best-effort, failures leave zero values
	_ = chromedp.Run(ctx, chromedp.Evaluate(visibleScript(cfg.RemovedMarker), &snap.RemovedVisible))
	_ = chromedp.Run(ctx, chromedp.Evaluate(textScript(cfg.RemovedMarker), &snap.RemovedText))
	_ = chromedp.Run(ctx, chromedp.Evaluate(visibleScript(cfg.UnavailablePanel), &snap.UnavailableVisible))
	_ = chromedp.Run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &snap.BodyText))

	snap.Title = waitForTitle(ctx, cfg)
	return snap
}

// waitForTitle polls the title selectors for a bounded window, since the
// catalog UI renders the title late on slow sessions.
func waitForTitle(ctx context.Context, cfg selectors.Config) string {
	deadline := time.Now().Add(5 * time.Second)
	for {
		for _, sel := range cfg.TitleSelectors {
			var title string
			if err := chromedp.Run(ctx, chromedp.Evaluate(textScript(sel), &title)); err == nil {
				if strings.TrimSpace(title) != "" {
					return title
				}
			}
		}
		if !time.Now().Before(deadline) {
			return ""
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func visibleScript(sel string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const style = window.getComputedStyle(el);
		return style.display !== 'none' && style.visibility !== 'hidden' && el.offsetParent !== null;
	})()`, sel)
}

func textScript(sel string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.innerText : "";
	})()`, sel)
}
