package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/ztrue/tracerr"
)

func writeBatchFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectBatchIDs(t *testing.T) {
	dir := t.TempDir()
	writeBatchFile(t, dir, "a.txt", "88876423\n")
	writeBatchFile(t, dir, "b.txt", "https://univ.scholarvox.com/catalog/book/docid/88876423\n")
	writeBatchFile(t, dir, "c.txt", "  12345 \n")
	writeBatchFile(t, dir, "d.txt", "")
	writeBatchFile(t, dir, "notes.md", "not a book file")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	ids, err := collectBatchIDs(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"88876423", "12345"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestCollectBatchIDs_MissingDir(t *testing.T) {
	if _, err := collectBatchIDs(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

// runBatch receives a download func with credentials already bound, so a
// batch never resolves or prompts per book. This exercises that contract:
// every id passes through the func exactly once, failures are counted
// without aborting the rest, and the output path is derived from -o.
func TestRunBatch(t *testing.T) {
	outDir := t.TempDir()
	args := &Args{Concurrency: 2, Output: outDir}
	ids := []string{"111", "222", "333"}

	var mu sync.Mutex
	calls := make(map[string]int)
	outputs := make(map[string]string)

	err := runBatch(context.Background(), args, ids, func(_ context.Context, id, output string) error {
		mu.Lock()
		calls[id]++
		outputs[id] = output
		mu.Unlock()
		if id == "222" {
			return tracerr.New("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected error when a book fails")
	}

	for _, id := range ids {
		if calls[id] != 1 {
			t.Errorf("id %s downloaded %d times, want 1", id, calls[id])
		}
		want := filepath.Join(outDir, id+".pdf")
		if outputs[id] != want {
			t.Errorf("output for %s = %q, want %q", id, outputs[id], want)
		}
	}
}

func TestRunBatch_NoOutputFolder(t *testing.T) {
	args := &Args{Concurrency: 1}

	var got string
	err := runBatch(context.Background(), args, []string{"111"}, func(_ context.Context, _, output string) error {
		got = output
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("output = %q, want empty for default path", got)
	}
}
