package manifest

import (
	"time"

	"github.com/jamesainslie/cascade/pkg/cascade/extractor"
)

// RunInfo carries the parts of a run that are not in the extractor report.
type RunInfo struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	InputDir    string
	OutputDir   string
	Remove      bool
	RemovalMode string
	Canceled    bool
}

// FromReport builds the record of a finished run. The ID is left empty
// for Record to fill in.
func FromReport(info RunInfo, report *extractor.Report) *Run {
	run := &Run{
		StartedAt:   info.StartedAt,
		FinishedAt:  info.FinishedAt,
		InputDir:    info.InputDir,
		OutputDir:   info.OutputDir,
		Remove:      info.Remove,
		RemovalMode: info.RemovalMode,
		Canceled:    info.Canceled,
		Archives:    make([]ArchiveRecord, 0, len(report.Files)),
	}
	if !run.Remove {
		run.RemovalMode = ""
	}

	for _, f := range report.Files {
		rec := ArchiveRecord{
			Path:     f.Path,
			Kind:     f.Kind.String(),
			Format:   f.Format.String(),
			Status:   f.Status.String(),
			Attempts: f.Attempts,
			Entries:  f.Entries,
			Bytes:    f.Bytes,
		}
		if f.Err != nil {
			rec.Error = f.Err.Error()
		}
		run.Archives = append(run.Archives, rec)
	}

	for _, rm := range report.Removed {
		run.Removed = append(run.Removed, FileRecord{Path: rm.Path, Size: rm.Size, RemovedAt: info.FinishedAt})
	}
	for _, rm := range report.RemovalErrors {
		run.Removed = append(run.Removed, FileRecord{Path: rm.Path, Size: rm.Size, Error: rm.Err.Error()})
	}

	run.Summary = Summary{
		Extracted:    report.Count(extractor.StatusExtracted),
		NoPassword:   report.Count(extractor.StatusNoPassword),
		Failed:       report.Count(extractor.StatusFailed),
		Skipped:      report.Count(extractor.StatusSkipped),
		BytesWritten: report.BytesWritten(),
		FilesRemoved: len(report.Removed),
		BytesRemoved: report.BytesRemoved(),
	}
	return run
}
