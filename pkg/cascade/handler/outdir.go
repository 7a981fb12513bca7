package handler

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// prepareOutputDir creates dir when it is missing. A directory that
// already holds entries is used as is, with a warning.
func prepareOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("opening output directory: %w", err)
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading output directory: %w", err)
	}
	if len(names) > 0 {
		logger().Warn("output directory is not empty", "dir", dir)
	}
	return nil
}
