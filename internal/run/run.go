// Package run sequences the full capture pipeline for one book: login,
// catalog pre-check, reader navigation, per-page stabilization and the
// final PDF emission.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/ztrue/tracerr"

	"github.com/dkorbel/svx2pdf/internal/auth"
	"github.com/dkorbel/svx2pdf/internal/browser"
	"github.com/dkorbel/svx2pdf/internal/catalog"
	"github.com/dkorbel/svx2pdf/internal/pdfout"
	"github.com/dkorbel/svx2pdf/internal/reader"
	"github.com/dkorbel/svx2pdf/internal/selectors"
)

// Options for one book download.
type Options struct {
	DocID      string
	OutputPath string

	LoginURL        string
	InstitutionSlug string
	Credentials     auth.Credentials

	// Scale overrides the computed print scale when non-zero.
	Scale float64
	// PerPage prints each page in isolation and merges the buffers,
	// instead of one print across the whole scroll container.
	PerPage bool
	// Strict turns stabilization timeouts into hard failures instead of
	// accepting possibly-blank pages.
	Strict bool
	Force  bool
	Debug  bool

	// SelectorsPath optionally points at a YAML selector override file.
	SelectorsPath string
}

func (o Options) outputPath() string {
	if o.OutputPath != "" {
		return o.OutputPath
	}
	return filepath.Join("output", o.DocID+".pdf")
}

// Download captures one book to a PDF and returns the written artifact.
// Browser resources are released on every path out of this function.
func Download(ctx context.Context, opts Options) (*pdfout.Artifact, error) {
	if opts.DocID == "" {
		return nil, tracerr.New("no document id given")
	}

	cfg := selectors.Default()
	if opts.SelectorsPath != "" {
		var err error
		cfg, err = selectors.Load(opts.SelectorsPath)
		if err != nil {
			return nil, err
		}
	}

	outPath := opts.outputPath()
	if _, err := os.Stat(outPath); err == nil && !opts.Force {
		return nil, tracerr.Errorf("%s already exists, use force to overwrite", outPath)
	}

	info := color.New(color.FgCyan).SprintFunc()

	session, err := browser.New(ctx, opts.Debug)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	fmt.Printf("%s Logging in...\n", info("INFO:"))
	res, err := auth.Login(session, cfg, auth.LoginOptions{
		ExplicitURL:     opts.LoginURL,
		InstitutionSlug: opts.InstitutionSlug,
		DocID:           opts.DocID,
		Credentials:     opts.Credentials,
	})
	if err != nil {
		return nil, err
	}
	if !res.Authenticated {
		return nil, tracerr.Errorf("login timed out without a session cookie (%s)", res.Note)
	}
	slog.Debug("authenticated", "evidence", res.Matched)

	status, title, err := catalog.Probe(session, cfg, opts.DocID)
	if err != nil {
		return nil, err
	}
	switch status {
	case catalog.StatusFound:
		fmt.Printf("%s Found: %s\n", info("INFO:"), title)
	case catalog.StatusRemoved:
		return nil, tracerr.Errorf("book %s has been removed from the catalog", opts.DocID)
	case catalog.StatusAvailableSoon:
		return nil, tracerr.Errorf("book %s is not available yet", opts.DocID)
	default:
		return nil, tracerr.Errorf("book %s not found in the catalog", opts.DocID)
	}

	sess, err := reader.Open(session, cfg, opts.DocID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	fmt.Printf("%s %d pages to load\n", info("INFO:"), sess.PageCount)

	bar := progressbar.NewOptions(sess.PageCount,
		progressbar.OptionSetDescription("Loading pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
	if err := sess.ScrollToLoad(func(int) { _ = bar.Add(1) }); err != nil {
		return nil, err
	}
	_ = bar.Close()

	var artifact *pdfout.Artifact
	if opts.PerPage {
		artifact, err = capturePerPage(sess, cfg, opts, outPath)
	} else {
		artifact, err = captureWhole(sess, cfg, opts, outPath)
	}
	if err != nil {
		return nil, err
	}

	success := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %d pages, %d bytes -> %s\n", success("DONE:"), artifact.Pages, artifact.Size, artifact.Path)
	return artifact, nil
}

// captureWhole stabilizes the assembled document once and prints it in a
// single call across the full scroll container.
func captureWhole(sess *reader.Session, cfg selectors.Config, opts Options, outPath string) (*pdfout.Artifact, error) {
	tabCtx := sess.Tab().Ctx()

	res, err := reader.Stabilize(tabCtx, cfg, opts.Scale, opts.Strict)
	if err != nil {
		return nil, err
	}

	buf, err := reader.CaptureDocument(tabCtx, cfg, res)
	if err != nil {
		return nil, err
	}
	return pdfout.Write(outPath, buf)
}

// capturePerPage isolates and prints every page index in ascending order,
// then merges the buffers into one document.
func capturePerPage(sess *reader.Session, cfg selectors.Config, opts Options, outPath string) (*pdfout.Artifact, error) {
	tabCtx := sess.Tab().Ctx()

	bar := progressbar.NewOptions(sess.PageCount,
		progressbar.OptionSetDescription("Capturing pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
	defer bar.Close()

	buffers := make([][]byte, 0, sess.PageCount)
	for i := 0; i < sess.PageCount; i++ {
		res, err := reader.Stabilize(tabCtx, cfg, opts.Scale, opts.Strict)
		if err != nil {
			return nil, tracerr.Wrap(fmt.Errorf("page %d: %w", i+1, err))
		}

		buf, err := reader.CaptureSinglePage(tabCtx, cfg, i, res)
		if err != nil {
			return nil, tracerr.Wrap(fmt.Errorf("page %d: %w", i+1, err))
		}
		buffers = append(buffers, buf)
		_ = bar.Add(1)
	}

	return pdfout.WriteMerged(outPath, buffers)
}
