package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/cascade/pkg/cascade/extractor"
	"github.com/jamesainslie/cascade/pkg/cascade/handler"
	"github.com/jamesainslie/cascade/pkg/cascade/logging"
	"github.com/jamesainslie/cascade/pkg/cascade/manifest"
	"github.com/jamesainslie/cascade/pkg/cascade/output"
	"github.com/jamesainslie/cascade/pkg/cascade/passwords"
	"github.com/jamesainslie/cascade/pkg/cascade/trash"
	"github.com/jamesainslie/cascade/pkg/cascade/tuner"
)

var (
	inDir        string
	outDir       string
	pwFile       string
	removeAfter  bool
	outputFormat string
	tryEmpty     bool
	walkWorkers  int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract every archive under a directory",
	Long: `Walk --in-dir and extract every supported archive into --out-dir.

Passwords are read from --pw-file, one per line, and tried in file order.
Blank lines are tried as the empty password. An archive that rejects every
password is reported and left in place.

With --rem, each archive that was extracted is removed after the walk. For a
multi-volume set all volumes are removed. The password file is never removed.

A run with failed archives still exits 0; only a run that cannot start
exits non-zero.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&inDir, "in-dir", "", "directory to search for archives")
	f.StringVar(&outDir, "out-dir", "", "directory to extract into")
	f.StringVar(&pwFile, "pw-file", "", "file with one candidate password per line")
	f.BoolVar(&removeAfter, "rem", false, "remove archives after successful extraction")
	f.StringVarP(&outputFormat, "output", "o", "", "summary format: pretty, json or yaml (default from config)")
	f.BoolVar(&tryEmpty, "try-empty", false, "try the empty password first")
	f.IntVarP(&walkWorkers, "workers", "w", 0, "directory walk workers (0=auto)")

	for _, name := range []string{"in-dir", "out-dir", "pw-file", "rem"} {
		_ = extractCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	log := logging.Get("cli")

	format := cfg.Output
	if cmd.Flags().Changed("output") {
		format = outputFormat
	}
	formatter, err := output.Get(format)
	if err != nil {
		return err
	}

	pws, err := passwords.Load(pwFile)
	if err != nil {
		return err
	}
	emptyFirst := cfg.TryEmptyPassword
	if cmd.Flags().Changed("try-empty") {
		emptyFirst = tryEmpty
	}
	if len(pws) == 0 && !emptyFirst {
		return fmt.Errorf("%s: %w", pwFile, passwords.ErrEmpty)
	}

	var remover extractor.Remover
	if removeAfter {
		fn, err := trash.ForMode(cfg.Removal.Mode)
		if err != nil {
			return err
		}
		remover = fn
	}

	inAbs, err := filepath.Abs(inDir)
	if err != nil {
		return err
	}
	outAbs, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = walkWorkers
	}
	walk := tuner.Auto(workers)
	log.Debug("walk tuned", "workers", walk.Workers, "queue", walk.QueueSize)

	ex, err := extractor.New(extractor.Options{
		InputDir:         inAbs,
		OutputDir:        outAbs,
		Passwords:        pws,
		TryEmptyPassword: emptyFirst,
		Remove:           removeAfter,
		Protected:        []string{pwFile},
		Walk:             walk,
	}, handler.DefaultRegistry(), remover)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now().UTC()
	report, runErr := ex.Run(ctx)
	if report == nil {
		return runErr
	}
	canceled := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !canceled {
		return runErr
	}

	run := manifest.FromReport(manifest.RunInfo{
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		InputDir:    inAbs,
		OutputDir:   outAbs,
		Remove:      removeAfter,
		RemovalMode: cfg.Removal.Mode,
		Canceled:    canceled,
	}, report)

	if cfg.Manifest.Enabled {
		if err := recordRun(run); err != nil {
			log.Warn("run not recorded", "err", err)
		}
	}

	if format != "pretty" || !getQuiet() {
		var buf bytes.Buffer
		if err := formatter.FormatRun(&buf, run); err != nil {
			return fmt.Errorf("rendering summary: %w", err)
		}
		_, _ = cmd.OutOrStdout().Write(buf.Bytes())
	}

	if canceled {
		printError("interrupted; %d archive(s) were processed", len(report.Files))
	}
	return nil
}

func recordRun(run *manifest.Run) error {
	m, err := openManifest()
	if err != nil {
		return err
	}
	return m.Record(run)
}
