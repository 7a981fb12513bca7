// Package trash removes extracted archive files, either permanently or by
// moving them to the desktop trash.
package trash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// commandTimeout bounds each external trash command.
const commandTimeout = 30 * time.Second

// ErrNotRegular is returned for paths that are not regular files.
var ErrNotRegular = errors.New("not a regular file")

// Func adapts a removal function to the Remove method used by the cleanup
// pass.
type Func func(ctx context.Context, path string) error

// Remove calls f.
func (f Func) Remove(ctx context.Context, path string) error {
	return f(ctx, path)
}

// ForMode returns the removal function for a configured mode, "delete" or
// "trash".
func ForMode(mode string) (Func, error) {
	switch mode {
	case "", "delete":
		return Delete, nil
	case "trash":
		return MoveToTrash, nil
	default:
		return nil, fmt.Errorf("unknown removal mode %q", mode)
	}
}

// Delete permanently removes the regular file at path.
func Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkRegular(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

// MoveToTrash moves the regular file at path to the desktop trash.
// On macOS it asks Finder; on Linux it tries gio, then trash-put. When no
// trash is available the file is deleted.
func MoveToTrash(ctx context.Context, path string) error {
	if err := checkRegular(path); err != nil {
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	var commands [][]string
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, absPath)
		commands = [][]string{{"osascript", "-e", script}}
	case "linux":
		commands = [][]string{{"gio", "trash", absPath}, {"trash-put", absPath}}
	}

	for _, argv := range commands {
		if run(ctx, argv) == nil {
			if _, err := os.Lstat(absPath); os.IsNotExist(err) {
				return nil
			}
		}
	}
	return Delete(ctx, absPath)
}

func run(ctx context.Context, argv []string) error {
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return exec.CommandContext(ctx, bin, argv[1:]...).Run()
}

func checkRegular(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("cannot remove %q: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("cannot remove %q: %w", path, ErrNotRegular)
	}
	return nil
}
