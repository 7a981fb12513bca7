package manifest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
	"github.com/jamesainslie/cascade/pkg/cascade/extractor"
)

func TestFromReport(t *testing.T) {
	t.Parallel()

	finished := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
	report := &extractor.Report{
		Files: []extractor.FileReport{
			{Path: "/in/a.zip", Kind: classify.Singlepart, Format: classify.FormatZip, Status: extractor.StatusExtracted, Attempts: 2, Entries: 4, Bytes: 400},
			{Path: "/in/b.7z.001", Kind: classify.MultipartFirst, Format: classify.FormatSevenZip, Status: extractor.StatusNoPassword, Attempts: 3, Err: extractor.ErrNoPassword},
			{Path: "/in/b.7z.002", Kind: classify.Multipart, Format: classify.FormatSevenZip, Status: extractor.StatusSkipped},
		},
		Removed:       []extractor.Removal{{Path: "/in/a.zip", Size: 90}},
		RemovalErrors: []extractor.Removal{{Path: "/in/c.zip", Size: 10, Err: errors.New("busy")}},
	}

	run := FromReport(RunInfo{
		StartedAt:   finished.Add(-time.Minute),
		FinishedAt:  finished,
		InputDir:    "/in",
		OutputDir:   "/out",
		Remove:      true,
		RemovalMode: "trash",
	}, report)

	require.Len(t, run.Archives, 3)
	assert.Equal(t, ArchiveRecord{Path: "/in/a.zip", Kind: "singlepart", Format: "zip", Status: "extracted", Attempts: 2, Entries: 4, Bytes: 400}, run.Archives[0])
	assert.Equal(t, "no suitable password", run.Archives[1].Error)
	assert.Equal(t, "multipart", run.Archives[2].Kind)

	require.Len(t, run.Removed, 2)
	assert.Equal(t, finished, run.Removed[0].RemovedAt)
	assert.Equal(t, "busy", run.Removed[1].Error)
	assert.True(t, run.Removed[1].RemovedAt.IsZero())

	assert.Equal(t, Summary{Extracted: 1, NoPassword: 1, Skipped: 1, BytesWritten: 400, FilesRemoved: 1, BytesRemoved: 90}, run.Summary)
	assert.Equal(t, "trash", run.RemovalMode)
	assert.Empty(t, run.ID)
}

func TestFromReport_NoRemoval(t *testing.T) {
	t.Parallel()

	run := FromReport(RunInfo{RemovalMode: "delete"}, &extractor.Report{})
	assert.Empty(t, run.RemovalMode)
	assert.NotNil(t, run.Archives)
	assert.Empty(t, run.Removed)
}
