// Package manifest keeps a history of extraction runs, one JSON file per
// run. It is an audit log: nothing in a run reads it back. Passwords are
// never recorded.
package manifest

import "time"

// Run is one recorded extraction run.
type Run struct {
	ID          string          `json:"id" yaml:"id"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time       `json:"finished_at" yaml:"finished_at"`
	InputDir    string          `json:"input_dir" yaml:"input_dir"`
	OutputDir   string          `json:"output_dir" yaml:"output_dir"`
	Remove      bool            `json:"remove" yaml:"remove"`
	RemovalMode string          `json:"removal_mode,omitempty" yaml:"removal_mode,omitempty"`
	Canceled    bool            `json:"canceled,omitempty" yaml:"canceled,omitempty"`
	Archives    []ArchiveRecord `json:"archives" yaml:"archives"`
	Removed     []FileRecord    `json:"removed,omitempty" yaml:"removed,omitempty"`
	Summary     Summary         `json:"summary" yaml:"summary"`
}

// ArchiveRecord is the outcome for one archive file found by the walk.
type ArchiveRecord struct {
	Path     string `json:"path" yaml:"path"`
	Kind     string `json:"kind" yaml:"kind"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
	Status   string `json:"status" yaml:"status"`
	Attempts int    `json:"attempts" yaml:"attempts"`
	Entries  int    `json:"entries,omitempty" yaml:"entries,omitempty"`
	Bytes    int64  `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FileRecord is one file the cleanup pass tried to remove.
type FileRecord struct {
	Path      string    `json:"path" yaml:"path"`
	Size      int64     `json:"size" yaml:"size"`
	RemovedAt time.Time `json:"removed_at,omitzero" yaml:"removed_at,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary totals a run.
type Summary struct {
	Extracted    int   `json:"extracted" yaml:"extracted"`
	NoPassword   int   `json:"no_password" yaml:"no_password"`
	Failed       int   `json:"failed" yaml:"failed"`
	Skipped      int   `json:"skipped" yaml:"skipped"`
	BytesWritten int64 `json:"bytes_written" yaml:"bytes_written"`
	FilesRemoved int   `json:"files_removed" yaml:"files_removed"`
	BytesRemoved int64 `json:"bytes_removed" yaml:"bytes_removed"`
}
