package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no run matches.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned by Get when an ID prefix matches several runs.
var ErrAmbiguous = errors.New("run ID prefix is ambiguous")

// Manifest stores runs as JSON files in one directory.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest rooted at dir. The directory is created on the
// first Record.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// Dir returns the manifest directory.
func (m *Manifest) Dir() string {
	return m.dir
}

// Record writes run, assigning an ID when it has none, and recomputes the
// byte totals in its summary from the removal records.
func (m *Manifest) Record(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	run.Summary.FilesRemoved = 0
	run.Summary.BytesRemoved = 0
	for _, f := range run.Removed {
		if f.Error == "" {
			run.Summary.FilesRemoved++
			run.Summary.BytesRemoved += f.Size
		}
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	path := filepath.Join(m.dir, filename(run))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// filename sorts runs by start time in a directory listing.
func filename(run *Run) string {
	return fmt.Sprintf("%s-%s.json", run.StartedAt.UTC().Format("20060102T150405"), run.ID)
}

// List returns recorded runs, newest first. A limit of zero or less
// returns all of them. Unreadable files are skipped.
func (m *Manifest) List(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runs, err := m.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Get returns the run whose ID equals id or, failing that, the only run
// whose ID starts with it.
func (m *Manifest) Get(id string) (*Run, error) {
	if id == "" {
		return nil, errors.New("run ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	runs, err := m.readAll()
	if err != nil {
		return nil, err
	}

	var match *Run
	for i := range runs {
		if runs[i].ID == id {
			return &runs[i], nil
		}
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Cleanup removes runs that started more than retentionDays ago and
// returns how many were removed. A retention of zero removes everything.
func (m *Manifest) Cleanup(retentionDays int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, err := m.files()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, name := range files {
		run, err := m.read(name)
		if err != nil {
			continue
		}
		if retentionDays > 0 && !run.StartedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (m *Manifest) files() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (m *Manifest) readAll() ([]Run, error) {
	names, err := m.files()
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(names))
	for _, name := range names {
		run, err := m.read(name)
		if err != nil {
			continue
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

func (m *Manifest) read(name string) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}
