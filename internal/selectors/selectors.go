// Package selectors holds the DOM probing heuristics for the ScholarVox
// reader platform. The upstream markup is not contract-stable, so every
// lookup is an ordered list of candidates tried in priority order, and the
// whole set can be overridden from a YAML file.
package selectors

import (
	"fmt"
	"os"

	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v3"
)

// Config is the full set of platform URLs, selector lists and marker
// strings the pipeline probes for.
type Config struct {
	// BaseURL is the platform entry point, without a trailing slash.
	BaseURL string `yaml:"base_url"`
	// RootDomain is the cookie domain suffix shared by all platform hosts.
	RootDomain string `yaml:"root_domain"`
	// SessionCookiePrefix marks the primary authentication cookie.
	SessionCookiePrefix string `yaml:"session_cookie_prefix"`
	// TrackingCookiePrefixes are preference/tracking families, logged for
	// diagnostics only.
	TrackingCookiePrefixes []string `yaml:"tracking_cookie_prefixes"`

	// Catalog probing.
	ErrorURLPatterns  []string `yaml:"error_url_patterns"`
	RemovedMarker     string   `yaml:"removed_marker"`
	RemovedText       string   `yaml:"removed_text"`
	UnavailablePanel  string   `yaml:"unavailable_panel"`
	AvailableSoonText string   `yaml:"available_soon_text"`
	TitleSelectors    []string `yaml:"title_selectors"`

	// Login form discovery, tried in order.
	EmailSelectors    []string `yaml:"email_selectors"`
	PasswordSelectors []string `yaml:"password_selectors"`
	SubmitSelectors   []string `yaml:"submit_selectors"`
	LoginRevealer     string   `yaml:"login_revealer"`

	// Reader internals.
	IframeSelectors     []string `yaml:"iframe_selectors"`
	PaginationContainer string   `yaml:"pagination_container"`
	SidebarSelector     string   `yaml:"sidebar_selector"`
	AuthWallText        string   `yaml:"auth_wall_text"`
}

// Default returns the selector set matching the platform markup as last
// observed. Callers mutate their own copy freely.
func Default() Config {
	return Config{
		BaseURL:             "https://univ.scholarvox.com",
		RootDomain:          "scholarvox.com",
		SessionCookiePrefix: "sfsessid",
		TrackingCookiePrefixes: []string{
			"cyblib", "_ga", "_gid", "axeptio",
		},

		ErrorURLPatterns: []string{"/error", "/404", "notfound"},
		RemovedMarker:    ".removedFlag",
		RemovedText:      "Cet ouvrage n'est plus disponible",
		UnavailablePanel: ".bookNotAvailable, .unavailablePanel",
		AvailableSoonText: "Cet ouvrage sera bientôt disponible",
		TitleSelectors: []string{
			"h1[itemprop='name']",
			".bookTitle h1",
			"#catalog_title",
			"h1",
		},

		EmailSelectors: []string{
			"input[type='email']",
			"input[name='email']",
			"input[name='username']",
			"#username",
			"input[autocomplete='username']",
		},
		PasswordSelectors: []string{
			"input[type='password']",
			"input[name='password']",
			"#password",
		},
		SubmitSelectors: []string{
			"button[type='submit']",
			"input[type='submit']",
			"button[name='login']",
			"form button",
		},
		LoginRevealer: "#signin, .loginButton, a[href*='login']",

		IframeSelectors: []string{
			"iframe#readerFrame",
			"iframe[src*='reader']",
			"iframe",
		},
		PaginationContainer: "#pagesContainer",
		SidebarSelector:     "#sidebar, .readerSidebar, nav.toc",
		AuthWallText:        "authentifier pour consulter l'intégralité",
	}
}

// Load reads a YAML override file and merges it over the defaults.
// Empty fields in the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, tracerr.Wrap(err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cfg, tracerr.Wrap(fmt.Errorf("parsing selector config %s: %w", path, err))
	}

	merge(&cfg, override)
	return cfg, nil
}

func merge(dst *Config, src Config) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.RootDomain != "" {
		dst.RootDomain = src.RootDomain
	}
	if src.SessionCookiePrefix != "" {
		dst.SessionCookiePrefix = src.SessionCookiePrefix
	}
	if len(src.TrackingCookiePrefixes) > 0 {
		dst.TrackingCookiePrefixes = src.TrackingCookiePrefixes
	}
	if len(src.ErrorURLPatterns) > 0 {
		dst.ErrorURLPatterns = src.ErrorURLPatterns
	}
	if src.RemovedMarker != "" {
		dst.RemovedMarker = src.RemovedMarker
	}
	if src.RemovedText != "" {
		dst.RemovedText = src.RemovedText
	}
	if src.UnavailablePanel != "" {
		dst.UnavailablePanel = src.UnavailablePanel
	}
	if src.AvailableSoonText != "" {
		dst.AvailableSoonText = src.AvailableSoonText
	}
	if len(src.TitleSelectors) > 0 {
		dst.TitleSelectors = src.TitleSelectors
	}
	if len(src.EmailSelectors) > 0 {
		dst.EmailSelectors = src.EmailSelectors
	}
	if len(src.PasswordSelectors) > 0 {
		dst.PasswordSelectors = src.PasswordSelectors
	}
	if len(src.SubmitSelectors) > 0 {
		dst.SubmitSelectors = src.SubmitSelectors
	}
	if src.LoginRevealer != "" {
		dst.LoginRevealer = src.LoginRevealer
	}
	if len(src.IframeSelectors) > 0 {
		dst.IframeSelectors = src.IframeSelectors
	}
	if src.PaginationContainer != "" {
		dst.PaginationContainer = src.PaginationContainer
	}
	if src.SidebarSelector != "" {
		dst.SidebarSelector = src.SidebarSelector
	}
	if src.AuthWallText != "" {
		dst.AuthWallText = src.AuthWallText
	}
}

// CatalogURL returns the catalog page for a document id.
func (c Config) CatalogURL(docID string) string {
	return fmt.Sprintf("%s/catalog/book/docid/%s", c.BaseURL, docID)
}

// ReaderURL returns the reader page for a document id and 1-based page number.
func (c Config) ReaderURL(docID string, page int) string {
	return fmt.Sprintf("%s/reader/docid/%s/page/%d", c.BaseURL, docID, page)
}

// LoginURL returns the SSO login entry point.
func (c Config) LoginURL() string {
	return c.BaseURL + "/login"
}

// InstitutionURL returns the institution-scoped entry point for a slug.
func (c Config) InstitutionURL(slug string) string {
	return fmt.Sprintf("%s/institution/%s", c.BaseURL, slug)
}
