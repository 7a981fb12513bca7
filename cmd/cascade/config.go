package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/cascade/pkg/cascade/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage cascade configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/cascade/config.yaml (if set)
  2. ~/.config/cascade/config.yaml

Environment variables override config file settings using the CASCADE_ prefix:
  CASCADE_REMOVAL_MODE=trash
  CASCADE_LOG_LEVEL=debug
  CASCADE_TRY_EMPTY_PASSWORD=true`,
	PersistentPreRunE:  skipInit,
	PersistentPostRunE: skipInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is $VISUAL, then $EDITOR, then vi. A default file is created
first if none exists.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if c.File != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", c.File)
	} else {
		fmt.Fprintf(out, "Config file: (using defaults, no file found)\n\n")
	}

	writeConfig(out, c)

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	overrides := envOverrides(os.Environ())
	if len(overrides) == 0 {
		fmt.Fprintln(out, "(none)")
	}
	for _, kv := range overrides {
		fmt.Fprintln(out, kv)
	}
	return nil
}

func writeConfig(out io.Writer, c *config.Config) {
	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "try_empty_password:       %t\n", c.TryEmptyPassword)
	fmt.Fprintf(out, "workers:                  %d\n", c.Workers)
	fmt.Fprintf(out, "output:                   %s\n", c.Output)
	fmt.Fprintf(out, "removal.mode:             %s\n", c.Removal.Mode)
	fmt.Fprintf(out, "manifest.enabled:         %t\n", c.Manifest.Enabled)
	fmt.Fprintf(out, "manifest.path:            %s\n", c.Manifest.Path)
	fmt.Fprintf(out, "manifest.retention_days:  %d\n", c.Manifest.RetentionDays)
	fmt.Fprintf(out, "log.level:                %s\n", c.Log.Level)
	fmt.Fprintf(out, "log.path:                 %s\n", c.Log.Path)
	fmt.Fprintf(out, "log.max_size:             %s\n", c.Log.MaxSize)
	fmt.Fprintf(out, "log.max_backups:          %d\n", c.Log.MaxBackups)

	components := make([]string, 0, len(c.Log.Components))
	for name, level := range c.Log.Components {
		components = append(components, name+"="+level)
	}
	sort.Strings(components)
	fmt.Fprintf(out, "log.components:           %s\n", strings.Join(components, ", "))
}

// envOverrides returns the CASCADE_ variables from environ, sorted.
func envOverrides(environ []string) []string {
	var found []string
	for _, kv := range environ {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			found = append(found, kv)
		}
	}
	sort.Strings(found)
	return found
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'cascade config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	printInfo("Created default config file: %s", configPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), configPath)
	return nil
}
