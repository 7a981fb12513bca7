package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/cascade/pkg/cascade/manifest"
)

// JSONFormatter writes runs as indented JSON, in the same shape the
// manifest stores them.
type JSONFormatter struct{}

// FormatRun writes run as a single JSON object.
func (f *JSONFormatter) FormatRun(w *bytes.Buffer, run *manifest.Run) error {
	return f.encode(w, run)
}

// FormatHistory writes runs as a JSON array.
func (f *JSONFormatter) FormatHistory(w *bytes.Buffer, runs []manifest.Run) error {
	if runs == nil {
		runs = []manifest.Run{}
	}
	return f.encode(w, runs)
}

func (f *JSONFormatter) encode(w *bytes.Buffer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
