package handler

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
)

// ErrContentMismatch is returned when a file's content is not the
// container its name claims.
var ErrContentMismatch = errors.New("content does not match archive format")

var expectedMIME = map[classify.Format]string{
	classify.FormatZip:      "application/zip",
	classify.FormatSevenZip: "application/x-7z-compressed",
	classify.FormatRar:      "application/x-rar-compressed",
}

// checkContent sniffs path and verifies it is a format container. ZIP
// based types such as jar or docx count as ZIP.
func checkContent(path string, format classify.Format) error {
	want, ok := expectedMIME[format]
	if !ok {
		return fmt.Errorf("%w: no content type for %s", ErrContentMismatch, format)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("sniffing %s: %w", filepath.Base(path), err)
	}

	for m := mt; m != nil; m = m.Parent() {
		if m.Is(want) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s, want %s", ErrContentMismatch, filepath.Base(path), mt.String(), want)
}
