package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation error returned from Load.
var ErrInvalid = errors.New("invalid configuration")

// LogConfig configures application logging.
type LogConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	MaxSize    string            `mapstructure:"max_size"`
	MaxBackups int               `mapstructure:"max_backups"`
	Components map[string]string `mapstructure:"components"`
}

// MaxSizeBytes parses MaxSize ("10MB", "512KiB").
func (c LogConfig) MaxSizeBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("log.max_size %q: %w", c.MaxSize, err)
	}
	return int64(n), nil
}

// RemovalConfig selects how extracted archives are removed.
type RemovalConfig struct {
	Mode string `mapstructure:"mode"`
}

// ManifestConfig configures the run history.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	TryEmptyPassword bool           `mapstructure:"try_empty_password"`
	Workers          int            `mapstructure:"workers"`
	Output           string         `mapstructure:"output"`
	Removal          RemovalConfig  `mapstructure:"removal"`
	Manifest         ManifestConfig `mapstructure:"manifest"`
	Log              LogConfig      `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Load reads configuration. An explicit path must exist; otherwise the
// file is looked up in, by precedence:
//   - $XDG_CONFIG_HOME/cascade/config.yaml
//   - $HOME/.config/cascade/config.yaml
//
// and a missing file leaves the defaults in place. Environment variables
// prefixed with CASCADE_ override both (CASCADE_REMOVAL_MODE=trash).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	var err error
	if cfg.Manifest.Path, err = ExpandPath(cfg.Manifest.Path); err != nil {
		return nil, err
	}
	if cfg.Log.Path, err = ExpandPath(cfg.Log.Path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("try_empty_password", false)
	v.SetDefault("workers", 0)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("removal.mode", DefaultRemovalMode)

	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.path", DefaultManifestDir())
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.path", DefaultLogPath())
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.components", map[string]string{})
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if !lo.Contains([]string{RemovalDelete, RemovalTrash}, c.Removal.Mode) {
		return fmt.Errorf("%w: removal.mode %q (want %s or %s)", ErrInvalid, c.Removal.Mode, RemovalDelete, RemovalTrash)
	}
	if !lo.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("%w: output %q (want one of %s)", ErrInvalid, c.Output, strings.Join(OutputFormats, ", "))
	}
	if _, err := c.Log.MaxSizeBytes(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if c.Manifest.RetentionDays < 0 {
		return fmt.Errorf("%w: manifest.retention_days must not be negative", ErrInvalid)
	}
	return nil
}

func searchDirs() []string {
	var dirs []string
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		dirs = append(dirs, filepath.Join(xdgConfigHome, "cascade"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "cascade"))
	}
	return dirs
}

// ConfigDir returns the directory the config file is written to.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "cascade"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cascade"), nil
}

// ConfigPath returns the path WriteDefault writes to.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/cascade.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "cascade")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "cascade.log")
}

// DefaultManifestDir returns the default run history directory.
func DefaultManifestDir() string {
	return filepath.Join(StateDir(), "history")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a commented default config file and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# cascade configuration

# Try the empty password before the password list, for unencrypted
# archives. It is skipped when the list already contains an empty line.
try_empty_password: false

# Directory walk workers; 0 sizes the walk from the CPU count
workers: 0

# Summary printed after a run: pretty, json or yaml
output: %s

removal:
  # delete: remove permanently; trash: move to the desktop trash
  mode: %s

# Run history, listed by "cascade history"
manifest:
  enabled: true
  path: %s
  retention_days: %d

log:
  # debug, info, warn, error
  level: %s
  path: %s
  max_size: %s
  max_backups: %d
  # Per-component levels: scanner, extractor, handler, trash, manifest
  components: {}
`, DefaultOutput, DefaultRemovalMode, DefaultManifestDir(), DefaultRetentionDays,
		DefaultLogLevel, DefaultLogPath(), DefaultLogMaxSize, DefaultLogMaxBackups)

	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return configPath, nil
}
