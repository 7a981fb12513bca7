package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for entry names that resolve outside the
// output directory.
var ErrUnsafePath = errors.New("entry path outside output directory")

// entryWriter writes decoded entries under root and counts what it wrote.
type entryWriter struct {
	root    string
	entries int
	bytes   int64
}

func newEntryWriter(root string) *entryWriter {
	return &entryWriter{root: filepath.Clean(root)}
}

// target resolves an archive entry name to a path under the root.
func (w *entryWriter) target(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	path := filepath.Join(w.root, filepath.FromSlash(name))

	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return path, nil
}

// dir creates the directory entry name.
func (w *entryWriter) dir(name string) error {
	path, err := w.target(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", name, err)
	}
	return nil
}

// file writes the entry name from r, creating parent directories. An
// existing file is overwritten. When copying fails the partial file is
// removed and the copy error is returned unwrapped, so callers can
// classify decoder errors.
func (w *entryWriter) file(ctx context.Context, name string, mode fs.FileMode, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := w.target(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", name, err)
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}

	n, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr != nil {
			return copyErr
		}
		return fmt.Errorf("writing %s: %w", name, closeErr)
	}

	w.entries++
	w.bytes += n
	return nil
}

func (w *entryWriter) result() Result {
	return Result{Outcome: Success, Entries: w.entries, Bytes: w.bytes}
}
