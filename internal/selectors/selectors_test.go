package selectors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_URLBuilders(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"catalog", cfg.CatalogURL("88442255"), "https://univ.scholarvox.com/catalog/book/docid/88442255"},
		{"reader", cfg.ReaderURL("88442255", 3), "https://univ.scholarvox.com/reader/docid/88442255/page/3"},
		{"login", cfg.LoginURL(), "https://univ.scholarvox.com/login"},
		{"institution", cfg.InstitutionURL("uniparis"), "https://univ.scholarvox.com/institution/uniparis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")
	yaml := `
base_url: "https://biblio.example.edu"
title_selectors:
  - ".customTitle"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BaseURL != "https://biblio.example.edu" {
		t.Errorf("BaseURL not overridden: %q", cfg.BaseURL)
	}
	if len(cfg.TitleSelectors) != 1 || cfg.TitleSelectors[0] != ".customTitle" {
		t.Errorf("TitleSelectors not overridden: %v", cfg.TitleSelectors)
	}
	// untouched fields keep defaults
	if cfg.SessionCookiePrefix != "sfsessid" {
		t.Errorf("SessionCookiePrefix lost default: %q", cfg.SessionCookiePrefix)
	}
	if cfg.PaginationContainer != "#pagesContainer" {
		t.Errorf("PaginationContainer lost default: %q", cfg.PaginationContainer)
	}
}

func TestLoad_MissingFileReturnsDefaultsAndError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if cfg.BaseURL == "" {
		t.Error("defaults should still be returned on error")
	}
}

func TestDefault_RemovalTextIsFrench(t *testing.T) {
	cfg := Default()
	if !strings.Contains(cfg.RemovedText, "n'est plus disponible") {
		t.Errorf("unexpected removal text: %q", cfg.RemovedText)
	}
	if cfg.AvailableSoonText != "Cet ouvrage sera bientôt disponible" {
		t.Errorf("unexpected availability text: %q", cfg.AvailableSoonText)
	}
}
