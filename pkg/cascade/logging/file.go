package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultMaxSize is the rollover size used when Config.MaxSize is zero.
const DefaultMaxSize int64 = 10 * 1024 * 1024

// RollingFile is an append-only log file that is renamed aside once it
// grows past a size limit. It is safe for concurrent use.
type RollingFile struct {
	path       string
	maxSize    int64
	maxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

// OpenRollingFile opens path for appending, creating parent directories.
// maxBackups of zero keeps every rolled-over file.
func OpenRollingFile(path string, maxSize int64, maxBackups int) (*RollingFile, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RollingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RollingFile) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Write appends p, rolling the file over first when p would push it past
// the size limit.
func (w *RollingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	if w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.roll(); err != nil {
			return 0, fmt.Errorf("rolling log file: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing log file: %w", err)
	}
	return n, nil
}

// roll must be called with w.mu held.
func (w *RollingFile) roll() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	ext := filepath.Ext(w.path)
	rolled := fmt.Sprintf("%s.%s%s", strings.TrimSuffix(w.path, ext),
		time.Now().Format("20060102-150405.000000000"), ext)
	if err := os.Rename(w.path, rolled); err != nil {
		return err
	}

	if err := w.open(); err != nil {
		return err
	}
	w.prune()
	return nil
}

// Backups returns the rolled-over files for this log, newest first.
func (w *RollingFile) Backups() []string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var backups []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base {
			continue
		}
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			backups = append(backups, filepath.Join(dir, name))
		}
	}
	// Timestamps sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups
}

func (w *RollingFile) prune() {
	if w.maxBackups <= 0 {
		return
	}
	backups := w.Backups()
	for i := w.maxBackups; i < len(backups); i++ {
		_ = os.Remove(backups[i])
	}
}

// Close syncs and closes the file.
func (w *RollingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}
