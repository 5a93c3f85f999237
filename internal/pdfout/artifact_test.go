package pdfout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWrite_RejectsEmptyBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "book.pdf")
	if _, err := Write(path, nil); err == nil {
		t.Fatal("expected error for empty buffer")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should exist after a rejected write")
	}
}

func TestWriteMerged_RejectsNoBuffers(t *testing.T) {
	if _, err := WriteMerged(filepath.Join(t.TempDir(), "book.pdf"), nil); err == nil {
		t.Fatal("expected error for zero buffers")
	}
}

func TestWriteMerged_RejectsEmptyPageBuffer(t *testing.T) {
	buffers := [][]byte{[]byte("%PDF-1.7 something"), nil}
	if _, err := WriteMerged(filepath.Join(t.TempDir(), "book.pdf"), buffers); err == nil {
		t.Fatal("expected error when a page buffer is empty")
	}
}

func TestWrite_InvalidPDFNeverReachesDisk(t *testing.T) {
	// page counting fails on garbage, so nothing is written
	path := filepath.Join(t.TempDir(), "nested", "dir", "book.pdf")
	if _, err := Write(path, []byte("not a pdf at all")); err == nil {
		t.Fatal("expected error for invalid PDF data")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid PDF should not be written")
	}
}
