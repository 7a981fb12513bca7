// Package passwords reads candidate password lists.
package passwords

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

// ErrEmpty reports a run with no candidate passwords at all.
var ErrEmpty = errors.New("no passwords to try")

// Load reads the password file at path. Every line is one candidate, in
// file order. Blank lines are kept as empty-string candidates. A single
// trailing newline ends the last line and does not add one, and \r\n line
// endings are accepted. An empty file yields an empty list.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading password file: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse splits content into candidates using the rules of Load.
func Parse(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// WithEmptyFirst returns list with "" in front, unless list already
// contains it.
func WithEmptyFirst(list []string) []string {
	if lo.Contains(list, "") {
		return list
	}
	return append([]string{""}, list...)
}
