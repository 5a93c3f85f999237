// Package creds resolves the platform credentials used for automated
// login. Resolution order: process environment (optionally seeded from a
// .env file), then an obfuscated local file under the XDG config dir, then
// an interactive prompt. Empty credentials are a valid outcome; the login
// flow then waits for a human-driven SSO session instead.
package creds

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/ztrue/tracerr"
	"golang.org/x/term"
)

const (
	envEmail    = "SVX_EMAIL"
	envPassword = "SVX_PASSWORD"
)

// Credentials is an email/password pair. Either may be empty.
type Credentials struct {
	Email    string
	Password string
}

// IsZero reports whether no credential material was found.
func (c Credentials) IsZero() bool {
	return c.Email == "" && c.Password == ""
}

// filePath is the obfuscated credential file location.
func filePath() (string, error) {
	return xdg.ConfigFile(filepath.Join("svx2pdf", "credentials"))
}

// Resolve loads credentials without prompting. A missing .env file or
// credential file is not an error.
func Resolve() (Credentials, error) {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	c := Credentials{
		Email:    os.Getenv(envEmail),
		Password: os.Getenv(envPassword),
	}
	if !c.IsZero() {
		return c, nil
	}

	path, err := filePath()
	if err != nil {
		return Credentials{}, tracerr.Wrap(err)
	}
	stored, err := readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}
	return stored, nil
}

// ResolveOrPrompt loads credentials, falling back to an interactive prompt
// on the terminal. The prompted pair is saved for later runs.
func ResolveOrPrompt() (Credentials, error) {
	c, err := Resolve()
	if err != nil {
		return Credentials{}, err
	}
	if !c.IsZero() {
		return c, nil
	}

	c, err = prompt()
	if err != nil {
		return Credentials{}, err
	}
	if c.IsZero() {
		return c, nil
	}

	if err := Save(c); err != nil {
		slog.Debug("could not persist credentials", "err", err)
	}
	return c, nil
}

// Save writes the pair to the XDG credential file. The encoding is an
// obfuscation against shoulder surfing, not encryption.
func Save(c Credentials) error {
	path, err := filePath()
	if err != nil {
		return tracerr.Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return tracerr.Wrap(err)
	}
	payload := base64.StdEncoding.EncodeToString([]byte(c.Email + "\n" + c.Password))
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		return tracerr.Wrap(err)
	}
	return nil
}

func readFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return Credentials{}, tracerr.Wrap(fmt.Errorf("corrupt credential file %s: %w", path, err))
	}
	return parse(string(decoded)), nil
}

func parse(decoded string) Credentials {
	parts := strings.SplitN(decoded, "\n", 2)
	c := Credentials{Email: strings.TrimSpace(parts[0])}
	if len(parts) == 2 {
		c.Password = strings.TrimSpace(parts[1])
	}
	return c
}

func prompt() (Credentials, error) {
	fmt.Print("Email (leave empty for browser SSO login): ")
	reader := bufio.NewReader(os.Stdin)
	email, err := reader.ReadString('\n')
	if err != nil {
		return Credentials{}, tracerr.Wrap(err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return Credentials{}, nil
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return Credentials{}, tracerr.Wrap(err)
	}

	return Credentials{Email: email, Password: string(raw)}, nil
}
