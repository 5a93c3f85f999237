package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/ztrue/tracerr"
	"golang.org/x/sync/errgroup"

	"github.com/dkorbel/svx2pdf/internal/auth"
	"github.com/dkorbel/svx2pdf/internal/catalog"
	"github.com/dkorbel/svx2pdf/internal/creds"
	"github.com/dkorbel/svx2pdf/internal/run"
)

type Args struct {
	DocID       string  `arg:"positional" help:"Document id or catalog URL of the book"`
	Output      string  `arg:"-o" help:"(Optional) Output PDF path, or output folder in batch mode. Defaults to output/<docid>.pdf"`
	LoginURL    string  `arg:"--login-url" help:"(Optional) Explicit login URL for institutional SSO"`
	Institution string  `arg:"--institution" help:"(Optional) Institution slug used to build the login entry point"`
	Scale       float64 `arg:"--scale" help:"(Optional) Explicit print scale. Defaults to one computed from the page width" default:"0"`
	PerPage     bool    `arg:"--per-page" help:"(Optional) Print each page in isolation and merge, instead of one whole-document print"`
	Strict      bool    `arg:"--strict" help:"(Optional) Fail on pages that never confirm rendered instead of accepting possibly-blank output"`
	Force       bool    `arg:"-f" help:"(Optional) Overwrite existing PDF file if it exists"`
	Debug       bool    `arg:"-d,--debug" help:"(Optional) Run the browser with a visible window and verbose logging"`
	Selectors   string  `arg:"--selectors" help:"(Optional) YAML file overriding the built-in DOM selectors"`
	NoPrompt    bool    `arg:"--no-prompt" help:"(Optional) Never prompt for credentials; rely on the browser login flow"`
	TerminalUI  bool    `arg:"-t,--termui" help:"(Optional) Use the terminal UI instead of command line arguments"`
	Batch       string  `arg:"--batch" help:"(Optional) Folder of .txt files, one document id per file, to download in bulk"`
	Concurrency int     `arg:"-c" help:"(Optional) Concurrent downloads in batch mode. Defaults to 1" default:"1"`
}

// Main entry point
func main() {
	if err := mainWithErrors(); err != nil {
		die(err)
	}
}

func die(err error) {
	color.Red("Error: %v", err)
	if os.Getenv("SVX_DEBUG") != "" {
		tracerr.PrintSourceColor(err)
	}
	os.Exit(1)
}

// Main function with error handling
func mainWithErrors() error {
	var args Args
	argP := arg.MustParse(&args)

	setupLogging(args.Debug)

	if args.TerminalUI {
		return RunTerminalUI()
	}

	if args.Batch != "" {
		return downloadBatch(context.Background(), &args)
	}

	if args.DocID == "" {
		argP.WriteHelp(os.Stderr)
		return fmt.Errorf("document id or URL is required")
	}

	return downloadOne(context.Background(), &args, args.DocID, args.Output)
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
		os.Setenv("SVX_DEBUG", "1")
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// downloadOne runs the full pipeline for a single book: credential
// resolution, login, catalog check, capture and PDF assembly.
func downloadOne(ctx context.Context, args *Args, idOrURL, output string) error {
	credentials, err := resolveCredentials(args.NoPrompt)
	if err != nil {
		return err
	}
	return downloadResolved(ctx, args, idOrURL, output, credentials)
}

func downloadResolved(ctx context.Context, args *Args, idOrURL, output string, credentials auth.Credentials) error {
	docID, err := catalog.ParseDocID(idOrURL)
	if err != nil {
		return err
	}

	start := time.Now()
	if _, err := run.Download(ctx, run.Options{
		DocID:           docID,
		OutputPath:      output,
		LoginURL:        args.LoginURL,
		InstitutionSlug: args.Institution,
		Credentials:     credentials,
		Scale:           args.Scale,
		PerPage:         args.PerPage,
		Strict:          args.Strict,
		Force:           args.Force,
		Debug:           args.Debug,
		SelectorsPath:   args.Selectors,
	}); err != nil {
		return err
	}

	info := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("%s completed in %s\n", info("INFO:"), formatDuration(time.Since(start)))
	return nil
}

func resolveCredentials(noPrompt bool) (auth.Credentials, error) {
	var (
		c   creds.Credentials
		err error
	)
	if noPrompt {
		c, err = creds.Resolve()
	} else {
		c, err = creds.ResolveOrPrompt()
	}
	if err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{Email: c.Email, Password: c.Password}, nil
}

// downloadBatch downloads every book listed in the batch folder. Each .txt
// file holds one document id on its first line. Books run under an errgroup
// with a concurrency limit; each download owns its own browser so sessions
// never interleave within a book.
func downloadBatch(ctx context.Context, args *Args) error {
	ids, err := collectBatchIDs(args.Batch)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no book files found in %s", args.Batch)
	}

	// credentials are resolved once, up front: concurrent goroutines must
	// never compete for the interactive stdin prompt
	credentials, err := resolveCredentials(args.NoPrompt)
	if err != nil {
		return err
	}

	info := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("%s %d book(s) to download\n", info("INFO:"), len(ids))

	return runBatch(ctx, args, ids, func(bookCtx context.Context, id, output string) error {
		return downloadResolved(bookCtx, args, id, output, credentials)
	})
}

// collectBatchIDs reads every .txt file in dir, parses the first line as a
// document id or catalog URL, and returns the unique ids in directory
// order. Unreadable or malformed files are reported and skipped.
func collectBatchIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	var ids []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		raw, err := readBatchFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			color.Red("Error: %s: %v", entry.Name(), err)
			continue
		}
		id, err := catalog.ParseDocID(raw)
		if err != nil {
			color.Red("Error: %s: %v", entry.Name(), err)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// runBatch drives the concurrent download loop over already-collected ids.
// The download func carries everything per-book work needs, so nothing in
// the loop touches stdin.
func runBatch(ctx context.Context, args *Args, ids []string, download func(context.Context, string, string) error) error {
	concurrency := args.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	start := time.Now()
	var failed int32

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for _, id := range ids {
		id := id
		eg.Go(func() error {
			bookCtx, cancel := context.WithTimeout(egCtx, 30*time.Minute)
			defer cancel()

			output := ""
			if args.Output != "" {
				output = filepath.Join(args.Output, id+".pdf")
			}

			// one broken book must not sink the rest of the batch
			if err := download(bookCtx, id, output); err != nil {
				color.Red("Error: %s: %v", id, err)
				atomic.AddInt32(&failed, 1)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return tracerr.Wrap(err)
	}

	info := color.New(color.FgCyan).SprintFunc()
	nFailed := int(atomic.LoadInt32(&failed))
	fmt.Printf("%s batch finished in %s, %d/%d succeeded\n",
		info("INFO:"), formatDuration(time.Since(start)), len(ids)-nFailed, len(ids))
	if nFailed > 0 {
		return fmt.Errorf("%d book(s) failed", nFailed)
	}
	return nil
}

func readBatchFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", tracerr.Wrap(err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return "", fmt.Errorf("empty file")
	}
	id := strings.TrimSpace(scanner.Text())
	if id == "" {
		return "", fmt.Errorf("empty document id")
	}
	return id, nil
}

// formatDuration formats time.Duration to a human-readable string (HH:MM:SS)
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
