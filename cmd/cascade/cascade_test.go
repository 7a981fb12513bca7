package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeka/zip"

	"github.com/jamesainslie/cascade/pkg/cascade/logging"
	"github.com/jamesainslie/cascade/pkg/cascade/manifest"
	"github.com/jamesainslie/cascade/pkg/cascade/passwords"
)

// resetFlags restores every flag in the command tree to its default so
// that tests can call Execute repeatedly.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { _ = logging.Close() })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

type workspace struct {
	root, in, out, pwFile, config, history string
}

func newWorkspace(t *testing.T, passwordFile string) *workspace {
	t.Helper()
	root := t.TempDir()
	w := &workspace{
		root:    root,
		in:      filepath.Join(root, "in"),
		out:     filepath.Join(root, "out"),
		pwFile:  filepath.Join(root, "pw.txt"),
		config:  filepath.Join(root, "config.yaml"),
		history: filepath.Join(root, "history"),
	}
	require.NoError(t, os.MkdirAll(w.in, 0o755))
	require.NoError(t, os.WriteFile(w.pwFile, []byte(passwordFile), 0o600))

	cfgYAML := "output: json\n" +
		"manifest:\n  path: " + w.history + "\n" +
		"log:\n  path: " + filepath.Join(root, "cascade.log") + "\n"
	require.NoError(t, os.WriteFile(w.config, []byte(cfgYAML), 0o644))
	return w
}

func writeEncryptedZip(t *testing.T, path, name, body, password string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Encrypt(name, password, zip.AES256Encryption)
	require.NoError(t, err)
	_, err = io.WriteString(w, body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtract_EndToEnd(t *testing.T) {
	w := newWorkspace(t, "password\n12345\n")
	writeEncryptedZip(t, filepath.Join(w.in, "a.zip"), "hello.txt", "hello world", "12345")
	writeEncryptedZip(t, filepath.Join(w.in, "nested", "b.zip"), "secret.txt", "nope", "not-in-list")
	require.NoError(t, os.WriteFile(filepath.Join(w.in, "notes.txt"), []byte("x"), 0o644))

	out, err := execute(t, "--config", w.config, "extract",
		"--in-dir", w.in, "--out-dir", w.out, "--pw-file", w.pwFile, "--rem")
	require.NoError(t, err)

	var run manifest.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, 1, run.Summary.Extracted)
	assert.Equal(t, 1, run.Summary.NoPassword)
	assert.Equal(t, 1, run.Summary.FilesRemoved)
	assert.NotEmpty(t, run.ID)

	data, err := os.ReadFile(filepath.Join(w.out, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	assert.NoFileExists(t, filepath.Join(w.in, "a.zip"))
	assert.FileExists(t, filepath.Join(w.in, "nested", "b.zip"))
	assert.FileExists(t, w.pwFile)

	out, err = execute(t, "--config", w.config, "history", "-o", "json")
	require.NoError(t, err)
	var runs []manifest.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	out, err = execute(t, "--config", w.config, "history", "show", run.ID[:8], "-o", "json")
	require.NoError(t, err)
	var shown manifest.Run
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, run.ID, shown.ID)
	assert.Len(t, shown.Archives, 2)

	_, err = execute(t, "--config", w.config, "-q", "history", "clean", "--all")
	require.NoError(t, err)
	entries, err := os.ReadDir(w.history)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_NoRemoval(t *testing.T) {
	w := newWorkspace(t, "12345")
	archive := filepath.Join(w.in, "a.zip")
	writeEncryptedZip(t, archive, "hello.txt", "hi", "12345")

	_, err := execute(t, "--config", w.config, "extract",
		"--in-dir", w.in, "--out-dir", w.out, "--pw-file", w.pwFile, "--rem=false")
	require.NoError(t, err)

	assert.FileExists(t, archive)
	assert.FileExists(t, filepath.Join(w.out, "hello.txt"))
}

func TestExtract_RequiredFlags(t *testing.T) {
	w := newWorkspace(t, "pw\n")

	tests := []struct {
		name    string
		args    []string
		missing string
	}{
		{"no pw-file", []string{"--in-dir", w.in, "--out-dir", w.out, "--rem"}, "pw-file"},
		{"no rem", []string{"--in-dir", w.in, "--out-dir", w.out, "--pw-file", w.pwFile}, "rem"},
		{"no in-dir", []string{"--out-dir", w.out, "--pw-file", w.pwFile, "--rem"}, "in-dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", w.config, "extract"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `"`+tt.missing+`"`)
		})
	}
}

func TestExtract_StartupErrors(t *testing.T) {
	t.Run("empty password file", func(t *testing.T) {
		w := newWorkspace(t, "")
		_, err := execute(t, "--config", w.config, "extract",
			"--in-dir", w.in, "--out-dir", w.out, "--pw-file", w.pwFile, "--rem=false")
		assert.ErrorIs(t, err, passwords.ErrEmpty)
	})

	t.Run("empty password file with try-empty", func(t *testing.T) {
		w := newWorkspace(t, "")
		_, err := execute(t, "--config", w.config, "extract",
			"--in-dir", w.in, "--out-dir", w.out, "--pw-file", w.pwFile, "--rem=false", "--try-empty")
		assert.NoError(t, err)
	})

	t.Run("missing password file", func(t *testing.T) {
		w := newWorkspace(t, "pw")
		_, err := execute(t, "--config", w.config, "extract",
			"--in-dir", w.in, "--out-dir", w.out, "--pw-file", filepath.Join(w.root, "missing"), "--rem=false")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing input directory", func(t *testing.T) {
		w := newWorkspace(t, "pw")
		_, err := execute(t, "--config", w.config, "extract",
			"--in-dir", filepath.Join(w.root, "nowhere"), "--out-dir", w.out, "--pw-file", w.pwFile, "--rem=false")
		assert.Error(t, err)
	})

	t.Run("unknown output format", func(t *testing.T) {
		w := newWorkspace(t, "pw")
		_, err := execute(t, "--config", w.config, "extract",
			"--in-dir", w.in, "--out-dir", w.out, "--pw-file", w.pwFile, "--rem=false", "-o", "xml")
		assert.ErrorContains(t, err, "unknown formatter")
	})

	t.Run("missing config file", func(t *testing.T) {
		w := newWorkspace(t, "pw")
		_, err := execute(t, "--config", filepath.Join(w.root, "absent.yaml"), "extract",
			"--in-dir", w.in, "--out-dir", w.out, "--pw-file", w.pwFile, "--rem=false")
		assert.Error(t, err)
	})
}

func TestConsoleLevel(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		want           string
	}{
		{false, false, "warn"},
		{true, false, "debug"},
		{false, true, "error"},
		{true, true, "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, consoleLevel(tt.verbose, tt.quiet))
	}
}

func TestEnvOverrides(t *testing.T) {
	got := envOverrides([]string{"HOME=/root", "CASCADE_REMOVAL_MODE=trash", "CASCADE_LOG_LEVEL=debug", "CASCADEX=1"})
	assert.Equal(t, []string{"CASCADE_LOG_LEVEL=debug", "CASCADE_REMOVAL_MODE=trash"}, got)
}

func TestVersionAndConfigShow(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cascade dev")

	w := newWorkspace(t, "pw")
	out, err = execute(t, "--config", w.config, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Config file: "+w.config)
	assert.Contains(t, out, "output:                   json")
	assert.Contains(t, out, "manifest.path:            "+w.history)
}
