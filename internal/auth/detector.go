// Package auth classifies the browser session's authentication state from
// its cookie jar and drives the login flow until that state flips.
package auth

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/chromedp/cdproto/network"

	"github.com/dkorbel/svx2pdf/internal/selectors"
)

// Result is the outcome of a single authentication check. It is always
// recomputed from the live cookie set, never cached.
type Result struct {
	Authenticated bool
	Note          string
	// Matched lists the session cookies that flipped the flag, as
	// "name@domain" evidence strings.
	Matched []string
}

// Detect classifies the given cookies against the platform's root domain.
// Presence of a session cookie (case-insensitive prefix match) makes the
// session authenticated unconditionally; tracking/preference families are
// only reported for diagnostics.
func Detect(cookies []*network.Cookie, cfg selectors.Config) Result {
	var matched []string
	var tracking []string

	prefix := strings.ToLower(cfg.SessionCookiePrefix)

	for _, ck := range cookies {
		if !onRootDomain(ck.Domain, cfg.RootDomain) {
			continue
		}
		name := strings.ToLower(ck.Name)
		if strings.HasPrefix(name, prefix) {
			matched = append(matched, fmt.Sprintf("%s@%s", ck.Name, ck.Domain))
			continue
		}
		for _, tp := range cfg.TrackingCookiePrefixes {
			if strings.HasPrefix(name, strings.ToLower(tp)) {
				tracking = append(tracking, fmt.Sprintf("%s@%s", ck.Name, ck.Domain))
				break
			}
		}
	}

	if len(tracking) > 0 {
		slog.Debug("tracking cookies present", "cookies", tracking)
	}

	if len(matched) > 0 {
		return Result{
			Authenticated: true,
			Note:          fmt.Sprintf("session cookie found (%d match)", len(matched)),
			Matched:       matched,
		}
	}
	return Result{
		Authenticated: false,
		Note:          fmt.Sprintf("no %s* cookie on %s", cfg.SessionCookiePrefix, cfg.RootDomain),
	}
}

// onRootDomain reports whether a cookie domain belongs to the platform's
// root domain. Cookie domains may carry a leading dot.
func onRootDomain(cookieDomain, root string) bool {
	d := strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	root = strings.ToLower(strings.TrimPrefix(root, "."))
	return d == root || strings.HasSuffix(d, "."+root)
}
