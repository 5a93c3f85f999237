package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ztrue/tracerr"

	"github.com/dkorbel/svx2pdf/internal/browser"
	"github.com/dkorbel/svx2pdf/internal/selectors"
)

// Credentials for automated form login. Empty credentials mean a
// human-driven SSO flow: the browser is left on the login page and the
// poll loop waits for the session cookie to appear.
type Credentials struct {
	Email    string
	Password string
}

// LoginOptions controls the login entry point and polling budget.
type LoginOptions struct {
	// ExplicitURL, when set, wins over InstitutionSlug and the homepage.
	ExplicitURL     string
	InstitutionSlug string
	// DocID, when known, lets each poll cycle re-navigate to the reader
	// page so fresh cookies get set on the right host.
	DocID        string
	Credentials  Credentials
	PollInterval time.Duration
	Timeout      time.Duration
}

const (
	defaultPollInterval = 1200 * time.Millisecond
	// SSO round trips involve a human; be generous.
	defaultLoginTimeout = 15 * time.Minute
	fieldVisibleTimeout = 10 * time.Second
	settleDelay         = 400 * time.Millisecond
)

// Login drives the login flow until the detector reports authenticated or
// the timeout elapses. On timeout one final check is performed and its
// result returned either way; the caller decides success or failure.
func Login(session *browser.Session, cfg selectors.Config, opts LoginOptions) (Result, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultLoginTimeout
	}

	entry := loginEntryPoint(cfg, opts)
	slog.Debug("login entry point", "url", entry)

	ctx := session.Ctx()
	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(entry),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	cancel()
	if err != nil {
		return Result{}, tracerr.Wrap(fmt.Errorf("opening login page %s: %w", entry, err))
	}

	// some institution pages hide the form behind a "Se connecter" control
	revealLoginControl(ctx, cfg)

	if opts.Credentials.Email != "" {
		if err := submitCredentials(ctx, cfg, opts.Credentials); err != nil {
			return Result{}, err
		}
	}

	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		<-ticker.C

		res, err := check(session, cfg)
		if err != nil {
			slog.Debug("auth poll failed", "err", err)
			continue
		}
		if res.Authenticated {
			solidify(session, cfg, opts.DocID)
			return res, nil
		}

		// revisiting the reader URL while the SSO dance is in flight
		// nudges the platform into setting its own cookies
		solidify(session, cfg, opts.DocID)
	}

	// one last check, returned regardless of outcome
	res, err := check(session, cfg)
	if err != nil {
		return Result{}, tracerr.Wrap(fmt.Errorf("final auth check: %w", err))
	}
	return res, nil
}

func loginEntryPoint(cfg selectors.Config, opts LoginOptions) string {
	switch {
	case opts.ExplicitURL != "":
		return opts.ExplicitURL
	case opts.InstitutionSlug != "":
		return cfg.InstitutionURL(opts.InstitutionSlug)
	default:
		return cfg.LoginURL()
	}
}

func check(session *browser.Session, cfg selectors.Config) (Result, error) {
	ctx, cancel := context.WithTimeout(session.Ctx(), 5*time.Second)
	defer cancel()

	cookies, err := session.Cookies(ctx)
	if err != nil {
		return Result{}, err
	}
	return Detect(cookies, cfg), nil
}

// solidify re-navigates to the reader page for the target document, if one
// is known. Navigation failures here are soft; the next poll rechecks.
func solidify(session *browser.Session, cfg selectors.Config, docID string) {
	if docID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(session.Ctx(), 15*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Navigate(cfg.ReaderURL(docID, 1))); err != nil {
		slog.Debug("cookie solidify navigation failed", "err", err)
	}
}

// revealLoginControl clicks the login reveal control if present. Absence is
// not an error; many entry points show the form directly.
func revealLoginControl(ctx context.Context, cfg selectors.Config) {
	clickCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := chromedp.Run(clickCtx,
		chromedp.Click(cfg.LoginRevealer, chromedp.ByQuery),
	); err != nil {
		slog.Debug("no login reveal control", "err", err)
	}
}

// submitCredentials locates the email and password fields through the
// prioritized selector lists, fills them with settle delays, and submits.
func submitCredentials(ctx context.Context, cfg selectors.Config, creds Credentials) error {
	emailSel, err := firstVisible(ctx, cfg.EmailSelectors, fieldVisibleTimeout)
	if err != nil {
		return authError(ctx, "email field never became visible")
	}

	if err := fillField(ctx, emailSel, creds.Email); err != nil {
		return tracerr.Wrap(err)
	}

	passSel, err := firstVisible(ctx, cfg.PasswordSelectors, fieldVisibleTimeout)
	if err != nil {
		return authError(ctx, "password field never became visible")
	}

	if err := fillField(ctx, passSel, creds.Password); err != nil {
		return tracerr.Wrap(err)
	}

	// prefer an explicit submit control; fall back to Enter in the
	// password field
	if submitSel, err := firstVisible(ctx, cfg.SubmitSelectors, 3*time.Second); err == nil {
		clickCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = chromedp.Run(clickCtx, chromedp.Click(submitSel, chromedp.ByQuery))
		cancel()
		if err != nil {
			return tracerr.Wrap(err)
		}
	} else {
		keyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = chromedp.Run(keyCtx, chromedp.SendKeys(passSel, kb.Enter, chromedp.ByQuery))
		cancel()
		if err != nil {
			return tracerr.Wrap(err)
		}
	}

	// navigation back to the platform's own domain confirms submission
	if err := waitForPlatformDomain(ctx, cfg, 60*time.Second); err != nil {
		return err
	}
	return nil
}

func fillField(ctx context.Context, sel, value string) error {
	fillCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return chromedp.Run(fillCtx,
		chromedp.Click(sel, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
	)
}

// firstVisible returns the first selector from the list whose element
// becomes visible, trying each with a slice of the overall timeout.
func firstVisible(ctx context.Context, sels []string, timeout time.Duration) (string, error) {
	if len(sels) == 0 {
		return "", tracerr.New("empty selector list")
	}
	per := timeout / time.Duration(len(sels))
	if per < time.Second {
		per = time.Second
	}
	for _, sel := range sels {
		waitCtx, cancel := context.WithTimeout(ctx, per)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
		cancel()
		if err == nil {
			return sel, nil
		}
	}
	return "", tracerr.New("no selector matched a visible element")
}

func waitForPlatformDomain(ctx context.Context, cfg selectors.Config, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var current string
		locCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := chromedp.Run(locCtx, chromedp.Location(&current))
		cancel()
		if err == nil {
			if u, perr := url.Parse(current); perr == nil &&
				strings.HasSuffix(strings.ToLower(u.Hostname()), strings.ToLower(cfg.RootDomain)) {
				return nil
			}
		}
		time.Sleep(time.Second)
	}
	return authError(ctx, "no navigation back to platform domain after submit")
}

// authError builds a fatal authentication error carrying the last observed
// URL for diagnostics.
func authError(ctx context.Context, msg string) error {
	var current string
	locCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_ = chromedp.Run(locCtx, chromedp.Location(&current))
	cancel()
	if current != "" {
		return tracerr.Wrap(fmt.Errorf("authentication failed: %s (last URL: %s)", msg, current))
	}
	return tracerr.Wrap(fmt.Errorf("authentication failed: %s", msg))
}
