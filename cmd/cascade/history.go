package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/cascade/pkg/cascade/config"
	"github.com/jamesainslie/cascade/pkg/cascade/manifest"
	"github.com/jamesainslie/cascade/pkg/cascade/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past extraction runs",
	Long: `List recorded extraction runs, newest first.

Each run records the directories involved, the outcome and number of
attempts for every archive, and the files removed afterwards. Passwords are
never recorded.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run",
	Long:  `Display a recorded run. The ID may be shortened to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old runs",
	Long:  `Remove runs older than manifest.retention_days, or all of them with --all.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var (
	historyLimit  int
	historyOutput string
	historyAll    bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show (0 for all)")
	historyCmd.PersistentFlags().StringVarP(&historyOutput, "output", "o", "", "output format: pretty, json or yaml (default from config)")
	historyCleanCmd.Flags().BoolVar(&historyAll, "all", false, "remove every recorded run")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openManifest returns the manifest at the configured directory.
func openManifest() (*manifest.Manifest, error) {
	dir := cfg.Manifest.Path
	if dir == "" {
		dir = config.DefaultManifestDir()
	}
	return manifest.New(dir)
}

func historyFormatter(cmd *cobra.Command) (output.Formatter, error) {
	format := cfg.Output
	if cmd.Flags().Changed("output") {
		format = historyOutput
	}
	return output.Get(format)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	formatter, err := historyFormatter(cmd)
	if err != nil {
		return err
	}
	m, err := openManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	runs, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	var buf bytes.Buffer
	if err := formatter.FormatHistory(&buf, runs); err != nil {
		return err
	}
	_, _ = cmd.OutOrStdout().Write(buf.Bytes())
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	formatter, err := historyFormatter(cmd)
	if err != nil {
		return err
	}
	m, err := openManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	run, err := m.Get(args[0])
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.FormatRun(&buf, run); err != nil {
		return err
	}
	_, _ = cmd.OutOrStdout().Write(buf.Bytes())
	return nil
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	m, err := openManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	retentionDays := cfg.Manifest.RetentionDays
	switch {
	case historyAll:
		retentionDays = 0
	case retentionDays <= 0:
		retentionDays = config.DefaultRetentionDays
	}

	removed, err := m.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	if historyAll {
		printInfo("Removed %d run(s).", removed)
	} else {
		printInfo("Removed %d run(s) older than %d days.", removed, retentionDays)
	}
	return nil
}
