package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rickgao/mt-bridge/internal/model"
)

// FileWriter overwrites a JSON file with the latest snapshot document.
type FileWriter struct {
	path   string
	key    string
	atomic bool
	perm   os.FileMode
}

// NewFileWriter creates a FileWriter for path, wrapping snapshots under key.
// With atomic set the document is written to a temp file and renamed over path,
// so readers never see a partial document.
func NewFileWriter(path, key string, atomic bool) *FileWriter {
	return &FileWriter{
		path:   path,
		key:    key,
		atomic: atomic,
		perm:   0o644,
	}
}

// Name implements Writer.
func (w *FileWriter) Name() string { return "file" }

// Path returns the output file path.
func (w *FileWriter) Path() string { return w.path }

// Write implements Writer.
func (w *FileWriter) Write(_ context.Context, snap model.Snapshot) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(model.Document(w.key, snap)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if !w.atomic {
		if err := os.WriteFile(w.path, buf.Bytes(), w.perm); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	return w.replace(dir, buf.Bytes())
}

// replace writes data to a temp file in dir and renames it over w.path.
func (w *FileWriter) replace(dir string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, w.perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// Close implements Writer.
func (w *FileWriter) Close() error { return nil }
