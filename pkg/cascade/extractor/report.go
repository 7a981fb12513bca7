package extractor

import (
	"github.com/samber/lo"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
)

// Status is the final outcome for one archive file.
type Status int

const (
	// StatusExtracted means one of the passwords worked.
	StatusExtracted Status = iota
	// StatusNoPassword means every password was rejected.
	StatusNoPassword
	// StatusFailed means the archive could not be extracted at all.
	StatusFailed
	// StatusSkipped marks a non-first volume of a multi-volume set.
	StatusSkipped
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusExtracted:
		return "extracted"
	case StatusNoPassword:
		return "no-password"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// FileReport describes what happened to one archive file.
type FileReport struct {
	Path   string
	Kind   classify.Kind
	Format classify.Format
	Status Status
	// Attempts is the number of handler calls made.
	Attempts int
	Entries  int
	Bytes    int64
	// Volumes lists the files marked for removal after a successful
	// extraction.
	Volumes []string
	Err     error
}

// Removal is one file the cleanup pass tried to remove.
type Removal struct {
	Path string
	Size int64
	Err  error
}

// Report summarizes a run.
type Report struct {
	Files []FileReport
	// Ignored counts files with no archive extension.
	Ignored int
	// WalkErrors holds problems reading parts of the input tree.
	WalkErrors []error
	// Removed and RemovalErrors split the cleanup pass by outcome.
	Removed       []Removal
	RemovalErrors []Removal
}

// Count returns how many files ended with status s.
func (r *Report) Count(s Status) int {
	return lo.CountBy(r.Files, func(f FileReport) bool { return f.Status == s })
}

// BytesWritten totals the bytes extracted by the run.
func (r *Report) BytesWritten() int64 {
	return lo.SumBy(r.Files, func(f FileReport) int64 { return f.Bytes })
}

// BytesRemoved totals the size of removed files.
func (r *Report) BytesRemoved() int64 {
	return lo.SumBy(r.Removed, func(rm Removal) int64 { return rm.Size })
}
