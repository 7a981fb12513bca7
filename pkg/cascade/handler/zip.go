package handler

import (
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yeka/zip"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
)

// ErrMultipartZip is returned by the ZIP handler's multipart operation.
// Split ZIP sets have no volume naming this tool recognizes.
var ErrMultipartZip = errors.New("multi-volume zip archives are not supported")

// Zip extracts ZIP archives, including ZipCrypto and AES encrypted ones.
type Zip struct{}

// NewZip returns the ZIP handler.
func NewZip() *Zip {
	return &Zip{}
}

// Extract implements FormatHandler.
func (z *Zip) Extract(ctx context.Context, req Request) Result {
	if err := begin(req, classify.FormatZip); err != nil {
		return Failed(err)
	}

	rc, err := zip.OpenReader(req.Archive)
	if err != nil {
		return Failed(fmt.Errorf("opening zip: %w", err))
	}
	defer rc.Close()

	w := newEntryWriter(req.OutputDir)
	for _, f := range rc.File {
		if err := ctx.Err(); err != nil {
			return Failed(err)
		}

		if f.FileInfo().IsDir() {
			if err := w.dir(f.Name); err != nil {
				return Failed(err)
			}
			continue
		}

		if f.IsEncrypted() {
			f.SetPassword(req.Password)
		}

		if err := extractZipEntry(ctx, w, f); err != nil {
			return classifyZipError(f, err)
		}
	}

	logger().Debug("zip extracted", "archive", req.Archive, "entries", w.entries)
	return w.result()
}

func extractZipEntry(ctx context.Context, w *entryWriter, f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer r.Close()

	if err := w.file(ctx, f.Name, f.Mode(), r); err != nil {
		return fmt.Errorf("extracting entry %s: %w", f.Name, err)
	}
	return nil
}

// ExtractMultipart implements FormatHandler. It always fails.
func (z *Zip) ExtractMultipart(_ context.Context, req Request) Result {
	return Failed(fmt.Errorf("%s: %w", req.Archive, ErrMultipartZip))
}

// classifyZipError maps decoder errors caused by a wrong key to
// WrongPassword. The ZipCrypto header is not verified, so a wrong key
// decrypts the entry to garbage. Garbage shows up as corrupt deflate data,
// a stream that ends early or a CRC mismatch. AES entries
// fail their HMAC instead. These only count for encrypted entries; on a
// plain entry they are corruption.
func classifyZipError(f *zip.File, err error) Result {
	if errors.Is(err, ErrUnsafePath) {
		return Failed(err)
	}
	if errors.Is(err, zip.ErrPassword) {
		return wrongPassword(err)
	}
	if !f.IsEncrypted() {
		return Failed(err)
	}

	var corrupt flate.CorruptInputError
	switch {
	case errors.As(err, &corrupt),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, zip.ErrChecksum),
		errors.Is(err, zip.ErrAuthentication),
		errors.Is(err, zip.ErrDecryption):
		return wrongPassword(err)
	default:
		return Failed(err)
	}
}
