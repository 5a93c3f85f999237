package creds

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		decoded string
		want    Credentials
	}{
		{"pair", "a@b.fr\nhunter2", Credentials{Email: "a@b.fr", Password: "hunter2"}},
		{"email only", "a@b.fr", Credentials{Email: "a@b.fr"}},
		{"whitespace trimmed", " a@b.fr \n hunter2 ", Credentials{Email: "a@b.fr", Password: "hunter2"}},
		{"empty", "", Credentials{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parse(tt.decoded); got != tt.want {
				t.Errorf("parse(%q) = %+v, want %+v", tt.decoded, got, tt.want)
			}
		})
	}
}

func TestReadFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")

	payload := base64.StdEncoding.EncodeToString([]byte("me@univ.fr\nsecret"))
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := readFile(path)
	if err != nil {
		t.Fatalf("readFile: %v", err)
	}
	want := Credentials{Email: "me@univ.fr", Password: "secret"}
	if got != want {
		t.Errorf("readFile = %+v, want %+v", got, want)
	}
}

func TestReadFile_CorruptPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	if err := os.WriteFile(path, []byte("not base64 !!!"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readFile(path); err == nil {
		t.Fatal("expected error for corrupt payload")
	}
}

func TestIsZero(t *testing.T) {
	if !(Credentials{}).IsZero() {
		t.Error("empty credentials should be zero")
	}
	if (Credentials{Email: "x"}).IsZero() {
		t.Error("credentials with email should not be zero")
	}
}
