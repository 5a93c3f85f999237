// Package pdfout assembles captured page buffers into the final PDF file.
package pdfout

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ztrue/tracerr"
)

// Artifact describes the written PDF.
type Artifact struct {
	Path  string
	Size  int64
	Pages int
}

// Write persists a single multi-page buffer to path, creating parent
// directories first. The write happens once, only after every page
// rendered; partially captured books never reach disk.
func Write(path string, data []byte) (*Artifact, error) {
	if len(data) == 0 {
		return nil, tracerr.New("refusing to write empty PDF buffer")
	}
	return finalize(path, data)
}

// WriteMerged merges per-page PDF buffers in order into one document at
// path. A single buffer skips the merge.
func WriteMerged(path string, buffers [][]byte) (*Artifact, error) {
	if len(buffers) == 0 {
		return nil, tracerr.New("no page buffers to merge")
	}
	if len(buffers) == 1 {
		return Write(path, buffers[0])
	}

	readers := make([]io.ReadSeeker, len(buffers))
	for i, buf := range buffers {
		if len(buf) == 0 {
			return nil, tracerr.Errorf("page buffer %d is empty", i+1)
		}
		readers[i] = bytes.NewReader(buf)
	}

	var merged bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.MergeRaw(readers, &merged, false, conf); err != nil {
		return nil, tracerr.Wrap(err)
	}
	return finalize(path, merged.Bytes())
}

func finalize(path string, data []byte) (*Artifact, error) {
	pages, err := pageCount(data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, tracerr.Wrap(err)
	}

	// write to a sibling temp file and rename so the target path only
	// ever holds a complete document
	tmp, err := os.CreateTemp(filepath.Dir(path), ".svx2pdf-*.pdf")
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, tracerr.Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, tracerr.Wrap(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return nil, tracerr.Wrap(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, tracerr.Wrap(err)
	}

	return &Artifact{
		Path:  path,
		Size:  int64(len(data)),
		Pages: pages,
	}, nil
}

func pageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, tracerr.Wrap(err)
	}
	return n, nil
}
