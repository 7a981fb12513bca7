package output

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/cascade/pkg/cascade/manifest"
)

// YAMLFormatter writes runs as YAML documents.
type YAMLFormatter struct{}

// FormatRun writes run as a single YAML document.
func (f *YAMLFormatter) FormatRun(w *bytes.Buffer, run *manifest.Run) error {
	return f.encode(w, run)
}

// FormatHistory writes runs as a YAML sequence.
func (f *YAMLFormatter) FormatHistory(w *bytes.Buffer, runs []manifest.Run) error {
	if runs == nil {
		runs = []manifest.Run{}
	}
	return f.encode(w, runs)
}

func (f *YAMLFormatter) encode(w *bytes.Buffer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
