package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/cascade/pkg/cascade/logging"
)

// Tests in this file share the package-level logger state and do not run
// in parallel.

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"info", logging.LevelInfo, false},
		{"warn", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"DEBUG", logging.LevelDebug, false},
		{"Info", logging.LevelInfo, false},
		{"verbose", logging.LevelInfo, true},
		{"", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.level)
			if tt.wantErr {
				assert.ErrorIs(t, err, logging.ErrInvalidLevel)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", logging.LevelDebug.String())
	assert.Equal(t, "error", logging.LevelError.String())
	assert.Equal(t, "unknown", logging.Level(42).String())
}

func TestSilentBeforeInit(t *testing.T) {
	require.NoError(t, logging.Close())

	logger := logging.Get("silent")
	require.NotNil(t, logger)
	logger.Info("goes nowhere")
}

func TestInit_InvalidLevels(t *testing.T) {
	assert.ErrorIs(t, logging.Init(logging.Config{Level: "loud"}), logging.ErrInvalidLevel)
	assert.ErrorIs(t, logging.Init(logging.Config{
		Level:      "info",
		Components: map[string]string{"x": "nope"},
	}), logging.ErrInvalidLevel)
	assert.ErrorIs(t, logging.Init(logging.Config{Level: "info", ConsoleLevel: "nope"}), logging.ErrInvalidLevel)
}

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cascade.log")

	require.NoError(t, logging.Init(logging.Config{Level: "warn", Path: path}))

	logger := logging.Get("extractor")
	logger.Info("info hidden")
	logger.Warn("warn shown", "archive", "a.zip")
	logger.With("run", "r1").Error("error shown")

	require.NoError(t, logging.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(content)

	assert.NotContains(t, s, "info hidden")
	assert.Contains(t, s, "warn shown")
	assert.Contains(t, s, "archive=a.zip")
	assert.Contains(t, s, "error shown")
	assert.Contains(t, s, "run=r1")
	assert.Contains(t, s, "extractor")
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cascade.log")

	require.NoError(t, logging.Init(logging.Config{
		Level:      "error",
		Path:       path,
		Components: map[string]string{"scanner": "debug"},
	}))

	logging.Get("extractor").Info("extractor info")
	logging.Get("scanner").Debug("scanner debug")

	require.NoError(t, logging.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "extractor info")
	assert.Contains(t, string(content), "scanner debug")
}

func TestLoggerFromBeforeInitStartsWriting(t *testing.T) {
	require.NoError(t, logging.Close())
	logger := logging.Get("early")

	var console bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{
		Level:        "info",
		ConsoleLevel: "info",
		Console:      &console,
	}))
	defer logging.Close()

	logger.Info("now visible")
	assert.Contains(t, console.String(), "now visible")
}

func TestConsoleLevel(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{
		Level:        "debug",
		ConsoleLevel: "warn",
		Console:      &console,
	}))
	defer logging.Close()

	logger := logging.Get("console")
	logger.Info("quiet")
	logger.Warn("loud")

	out := console.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestCloseSilences(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{
		Level:        "info",
		ConsoleLevel: "info",
		Console:      &console,
	}))
	logger := logging.Get("closing")

	require.NoError(t, logging.Close())
	require.NoError(t, logging.Close())

	logger.Error("after close")
	assert.Empty(t, console.String())
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	assert.True(t, strings.HasSuffix(path, filepath.Join("cascade", "cascade.log")), path)
}
