// Package extractor walks an input tree and extracts every archive it
// finds, trying an ordered list of passwords against each one.
//
// For each file, passwords are tried in list order until the handler for
// the file's format reports success, rejects the archive outright, or the
// list runs out. Only single-volume archives and the first volume of a
// multi-volume set are opened; the other volumes are skipped by the walk
// and read by the handler through the first one.
//
// With removal enabled, a successful extraction marks the archive for
// removal. For a multi-volume set every volume found on disk is marked,
// not just the first. Removals run in one pass after the walk has
// finished, and each is independent: a failure is recorded and the pass
// goes on.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
	"github.com/jamesainslie/cascade/pkg/cascade/handler"
	"github.com/jamesainslie/cascade/pkg/cascade/logging"
	"github.com/jamesainslie/cascade/pkg/cascade/passwords"
	"github.com/jamesainslie/cascade/pkg/cascade/scanner"
	"github.com/jamesainslie/cascade/pkg/cascade/sequence"
	"github.com/jamesainslie/cascade/pkg/cascade/tuner"
)

var (
	// ErrNoPassword is recorded for archives that rejected every password.
	ErrNoPassword = errors.New("no suitable password")
	// ErrNoHandler is recorded for archives of a format with no handler.
	ErrNoHandler = errors.New("no handler for archive format")
)

// Handlers selects the handler for a container format.
type Handlers interface {
	For(format classify.Format) (handler.FormatHandler, bool)
}

// Remover removes one file in the cleanup pass.
type Remover interface {
	Remove(ctx context.Context, path string) error
}

// Options configures a run.
type Options struct {
	InputDir  string
	OutputDir string

	// Passwords are tried in order for every archive.
	Passwords []string

	// TryEmptyPassword puts "" in front of Passwords unless it is already
	// in the list.
	TryEmptyPassword bool

	// Remove enables the cleanup pass.
	Remove bool

	// Protected files are never removed, whatever marks them.
	Protected []string

	// FileSystem is used to look up volumes. Nil means the OS.
	FileSystem sequence.FileSystem

	// Walk sizes the directory walk. The zero value uses the scanner
	// defaults.
	Walk tuner.WalkConfig
}

// Extractor runs the walk, the password cascade and the cleanup pass.
type Extractor struct {
	opts      Options
	passwords []string
	protected map[string]bool
	handlers  Handlers
	remover   Remover
	log       *logging.Logger
}

// New validates opts and returns an Extractor. remover may be nil when
// opts.Remove is false.
func New(opts Options, handlers Handlers, remover Remover) (*Extractor, error) {
	if handlers == nil {
		return nil, errors.New("no handlers configured")
	}
	if opts.Remove && remover == nil {
		return nil, errors.New("removal requested without a remover")
	}

	var err error
	if opts.InputDir, err = filepath.Abs(opts.InputDir); err != nil {
		return nil, fmt.Errorf("resolving input directory: %w", err)
	}
	if opts.OutputDir, err = filepath.Abs(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if opts.FileSystem == nil {
		opts.FileSystem = sequence.OSFileSystem{}
	}

	pw := opts.Passwords
	if opts.TryEmptyPassword {
		pw = passwords.WithEmptyFirst(pw)
	}

	protected := make(map[string]bool, len(opts.Protected))
	for _, p := range opts.Protected {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving protected path %q: %w", p, err)
		}
		protected[abs] = true
	}

	return &Extractor{
		opts:      opts,
		passwords: pw,
		protected: protected,
		handlers:  handlers,
		remover:   remover,
		log:       logging.Get("extractor"),
	}, nil
}

// Run walks the input directory and processes every file. It fails only
// when the walk cannot start. If ctx is canceled the walk stops, the
// cleanup pass still runs for archives already extracted, and the report
// is returned together with the context error.
func (e *Extractor) Run(ctx context.Context) (*Report, error) {
	files, err := scanner.Files(ctx, scanner.Options{
		Root:      e.opts.InputDir,
		Exclude:   e.excludedDirs(),
		Workers:   e.opts.Walk.Workers,
		QueueSize: e.opts.Walk.QueueSize,
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("extraction started",
		"in", e.opts.InputDir, "out", e.opts.OutputDir,
		"passwords", len(e.passwords), "remove", e.opts.Remove)

	report := &Report{}
	var marks []string

	for entry, err := range files {
		if err != nil {
			e.log.Warn("walk error", "err", err)
			report.WalkErrors = append(report.WalkErrors, err)
			continue
		}
		if ctx.Err() != nil {
			break
		}

		af := classify.New(entry.Path)
		if af.Kind == classify.Unsupported {
			e.log.Debug("not an archive", "path", entry.Path)
			report.Ignored++
			continue
		}

		fr := e.process(ctx, af)
		report.Files = append(report.Files, fr)
		marks = append(marks, fr.Volumes...)
	}

	if e.opts.Remove {
		e.cleanup(context.WithoutCancel(ctx), marks, report)
	}

	e.log.Info("extraction finished",
		"extracted", report.Count(StatusExtracted),
		"no_password", report.Count(StatusNoPassword),
		"failed", report.Count(StatusFailed),
		"skipped", report.Count(StatusSkipped),
		"removed", len(report.Removed))

	return report, ctx.Err()
}

// excludedDirs keeps an output directory nested in the input directory
// out of the walk.
func (e *Extractor) excludedDirs() []string {
	in, out := e.opts.InputDir, e.opts.OutputDir
	if out == in {
		e.log.Warn("output directory is the input directory; extracted archives may be picked up by this run", "dir", in)
		return nil
	}
	if strings.HasPrefix(out, in+string(filepath.Separator)) {
		return []string{out}
	}
	return nil
}

// process runs the password cascade for one archive file.
func (e *Extractor) process(ctx context.Context, af classify.ArchiveFile) FileReport {
	fr := FileReport{Path: af.Path, Kind: af.Kind, Format: af.Format}
	log := e.log.With("archive", af.Path)

	if af.Kind == classify.Multipart {
		log.Info("skipping non-first volume")
		fr.Status = StatusSkipped
		return fr
	}

	h, ok := e.handlers.For(af.Format)
	if !ok {
		log.Error("extraction failed", "err", ErrNoHandler, "format", af.Format)
		fr.Status = StatusFailed
		fr.Err = fmt.Errorf("%w: %s", ErrNoHandler, af.Format)
		return fr
	}

	for i, pw := range e.passwords {
		req := handler.Request{Archive: af.Path, Password: pw, OutputDir: e.opts.OutputDir}

		var res handler.Result
		if af.Kind == classify.MultipartFirst {
			res = h.ExtractMultipart(ctx, req)
		} else {
			res = h.Extract(ctx, req)
		}
		fr.Attempts = i + 1

		switch res.Outcome {
		case handler.Success:
			fr.Status = StatusExtracted
			fr.Entries = res.Entries
			fr.Bytes = res.Bytes
			log.Info("extracted", "attempt", fr.Attempts, "entries", res.Entries)
			if e.opts.Remove {
				e.mark(&fr, af)
			}
			return fr

		case handler.WrongPassword:
			log.Debug("wrong password", "attempt", fr.Attempts)

		default:
			log.Error("extraction failed", "attempt", fr.Attempts, "err", res.Err)
			fr.Status = StatusFailed
			fr.Err = res.Err
			if fr.Err == nil {
				fr.Err = errors.New("handler reported failure")
			}
			return fr
		}
	}

	log.Warn("no suitable password", "tried", len(e.passwords))
	fr.Status = StatusNoPassword
	fr.Err = ErrNoPassword
	return fr
}

// mark records the files to remove for a successfully extracted archive.
// A set whose volumes cannot be enumerated is reported as failed, its
// written totals are dropped and nothing is marked.
func (e *Extractor) mark(fr *FileReport, af classify.ArchiveFile) {
	if af.Kind != classify.MultipartFirst {
		fr.Volumes = []string{af.Path}
		return
	}

	volumes, err := sequence.EnumerateVolumes(e.opts.FileSystem, af.Path, filepath.Dir(af.Path))
	if err != nil {
		e.log.Error("cannot resolve volume set", "archive", af.Path, "err", err)
		fr.Status = StatusFailed
		fr.Err = fmt.Errorf("resolving volumes: %w", err)
		fr.Entries, fr.Bytes = 0, 0
		return
	}
	e.log.Debug("volume set resolved", "archive", af.Path, "volumes", len(volumes))
	fr.Volumes = volumes
}

// cleanup removes every marked file once, skipping protected ones.
func (e *Extractor) cleanup(ctx context.Context, marks []string, report *Report) {
	for _, path := range lo.Uniq(marks) {
		if e.protected[path] {
			e.log.Warn("refusing to remove protected file", "path", path)
			continue
		}

		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}

		rm := Removal{Path: path, Size: size}
		if err := e.remover.Remove(ctx, path); err != nil {
			e.log.Error("removal failed", "path", path, "err", err)
			rm.Err = err
			report.RemovalErrors = append(report.RemovalErrors, rm)
			continue
		}
		e.log.Debug("removed", "path", path)
		report.Removed = append(report.Removed, rm)
	}
}
