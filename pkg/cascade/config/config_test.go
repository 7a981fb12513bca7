package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and XDG_CONFIG_HOME at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.TryEmptyPassword)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, RemovalDelete, cfg.Removal.Mode)
	assert.True(t, cfg.Manifest.Enabled)
	assert.Equal(t, DefaultManifestDir(), cfg.Manifest.Path)
	assert.Equal(t, DefaultRetentionDays, cfg.Manifest.RetentionDays)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogPath(), cfg.Log.Path)
	assert.Equal(t, DefaultLogMaxBackups, cfg.Log.MaxBackups)
	assert.Empty(t, cfg.File)

	size, err := cfg.Log.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), size)
}

func TestLoad_FromHomeConfig(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, filepath.Join(home, ".config", "cascade"), `
try_empty_password: true
output: json
removal:
  mode: trash
manifest:
  enabled: false
  path: ~/history
  retention_days: 7
log:
  level: debug
  max_size: 1MiB
  components:
    handler: warn
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.True(t, cfg.TryEmptyPassword)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, RemovalTrash, cfg.Removal.Mode)
	assert.False(t, cfg.Manifest.Enabled)
	assert.Equal(t, filepath.Join(home, "history"), cfg.Manifest.Path)
	assert.Equal(t, 7, cfg.Manifest.RetentionDays)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, map[string]string{"handler": "warn"}, cfg.Log.Components)

	size, err := cfg.Log.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), size)
}

func TestLoad_XDGConfigHomeWins(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "cascade"), "output: json\n")

	xdgHome := filepath.Join(home, "xdg")
	writeConfig(t, filepath.Join(xdgHome, "cascade"), "removal:\n  mode: trash\n")
	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, RemovalTrash, cfg.Removal.Mode)
	assert.Equal(t, DefaultOutput, cfg.Output)
}

func TestLoad_ExplicitPath(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, filepath.Join(home, "elsewhere"), "output: json\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)

	_, err = Load(filepath.Join(home, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("CASCADE_REMOVAL_MODE", "trash")
	t.Setenv("CASCADE_TRY_EMPTY_PASSWORD", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, RemovalTrash, cfg.Removal.Mode)
	assert.True(t, cfg.TryEmptyPassword)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"removal mode", "removal:\n  mode: shred\n"},
		{"output", "output: xml\n"},
		{"max size", "log:\n  max_size: lots\n"},
		{"retention", "manifest:\n  retention_days: -1\n"},
		{"workers", "workers: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			writeConfig(t, filepath.Join(home, ".config", "cascade"), tt.content)

			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "cascade"), "output: [unterminated\n")

	_, err := Load("")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestWriteDefault(t *testing.T) {
	home := isolate(t)

	path, err := WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "cascade", "config.yaml"), path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, RemovalDelete, cfg.Removal.Mode)

	require.NoError(t, os.WriteFile(path, []byte("output: json\n"), 0o644))
	again, err := WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, path, again)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "output: json\n", string(content), "existing file is kept")
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	got, err := ExpandPath("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), got)

	got, err = ExpandPath("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", got)
}
