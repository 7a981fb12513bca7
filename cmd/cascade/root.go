package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/cascade/pkg/cascade/config"
	"github.com/jamesainslie/cascade/pkg/cascade/logging"
)

var (
	cfgFile string

	// cfg is loaded by initializeLogging before any command that needs it.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "cascade",
		Short: "Extract password-protected archives with a list of candidate passwords",
		Long: `Cascade walks a directory tree and extracts every ZIP, 7z and RAR archive
it finds, trying each password from a password file in order until one works.

Multi-volume sets (name.7z.001, name.part1.rar) are opened through their
first volume. With --rem, archives that were extracted are removed once the
whole tree has been processed, including every volume of a set.

Examples:
  cascade extract --in-dir ~/Downloads --out-dir ~/unpacked --pw-file pw.txt --rem=false
  cascade extract --in-dir in --out-dir out --pw-file pw.txt --rem -o json
  cascade history                 # Recent runs
  cascade config show             # Effective configuration`,
		SilenceUsage:       true,
		PersistentPreRunE:  initializeLogging,
		PersistentPostRunE: closeLogging,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/cascade/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only print errors")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on the console")

	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initializeLogging loads the configuration and starts logging. It runs
// before every command except those that work without a valid config.
func initializeLogging(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	maxSize, err := cfg.Log.MaxSizeBytes()
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Config{
		Level:        cfg.Log.Level,
		Path:         cfg.Log.Path,
		MaxSize:      maxSize,
		MaxBackups:   cfg.Log.MaxBackups,
		Components:   cfg.Log.Components,
		ConsoleLevel: consoleLevel(getVerbose(), getQuiet()),
	}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	logging.Get("cli").Debug("configuration loaded", "file", cfg.File)
	return nil
}

func closeLogging(_ *cobra.Command, _ []string) error {
	return logging.Close()
}

// consoleLevel maps the verbosity flags to a console log level. Quiet
// wins over verbose.
func consoleLevel(verbose, quiet bool) string {
	switch {
	case quiet:
		return "error"
	case verbose:
		return "debug"
	default:
		return "warn"
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// skipInit replaces the root pre-run hook for commands that must work
// without a loadable config.
func skipInit(_ *cobra.Command, _ []string) error {
	return nil
}
