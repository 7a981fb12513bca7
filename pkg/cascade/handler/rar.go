package handler

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
)

// Rar extracts RAR archives. The decoder follows .partN.rar volumes on
// its own, so both operations open the first volume the same way.
type Rar struct{}

// NewRar returns the RAR handler.
func NewRar() *Rar {
	return &Rar{}
}

// Extract implements FormatHandler.
func (r *Rar) Extract(ctx context.Context, req Request) Result {
	return r.extract(ctx, req)
}

// ExtractMultipart implements FormatHandler.
func (r *Rar) ExtractMultipart(ctx context.Context, req Request) Result {
	return r.extract(ctx, req)
}

func (r *Rar) extract(ctx context.Context, req Request) Result {
	if err := begin(req, classify.FormatRar); err != nil {
		return Failed(err)
	}

	var opts []rardecode.Option
	if req.Password != "" {
		opts = append(opts, rardecode.Password(req.Password))
	}

	rc, err := rardecode.OpenReader(req.Archive, opts...)
	if err != nil {
		return classifyRarHeaderError(fmt.Errorf("opening rar: %w", err), req.Password != "")
	}
	defer rc.Close()

	w := newEntryWriter(req.OutputDir)
	for {
		if err := ctx.Err(); err != nil {
			return Failed(err)
		}

		h, err := rc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return classifyRarHeaderError(fmt.Errorf("reading rar header: %w", err), req.Password != "")
		}

		if h.IsDir {
			if err := w.dir(h.Name); err != nil {
				return Failed(err)
			}
			continue
		}

		if err := w.file(ctx, h.Name, h.Mode(), rc); err != nil {
			if errors.Is(err, ErrUnsafePath) || ctx.Err() != nil {
				return Failed(err)
			}
			return classifyRarDataError(fmt.Errorf("extracting entry %s: %w", h.Name, err), h.Encrypted)
		}
	}

	logger().Debug("rar extracted", "archive", req.Archive, "entries", w.entries)
	return w.result()
}

// Errors that mean a password is missing or was rejected by a verifier.
var rarPasswordErrors = []error{
	rardecode.ErrBadPassword,
	rardecode.ErrArchiveEncrypted,
	rardecode.ErrArchivedFileEncrypted,
}

// RAR 1.5-4 encrypted headers carry no verifier. Decrypted with a wrong key
// they fail the header CRC or do not parse.
var rarHeaderGarbage = []error{
	rardecode.ErrBadHeaderCRC,
	rardecode.ErrCorruptBlockHeader,
	rardecode.ErrCorruptFileHeader,
	rardecode.ErrCorruptEncryptData,
}

// Encrypted file data decrypted with a wrong key is garbage to the
// decompressor.
var rarDataGarbage = []error{
	rardecode.ErrHuffDecodeFailed,
	rardecode.ErrInvalidLengthTable,
	rardecode.ErrCorruptPPM,
	rardecode.ErrCorruptDecodeHeader,
	rardecode.ErrDecoderOutOfData,
	rardecode.ErrShortFile,
	rardecode.ErrBadFileChecksum,
	rardecode.ErrInvalidFilter,
	rardecode.ErrTooManyFilters,
	rardecode.ErrUnknownFilter,
	rardecode.ErrInvalidVMInstruction,
	io.ErrUnexpectedEOF,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// classifyRarHeaderError classifies errors from opening the archive or
// reading a block header. Header corruption only counts as a wrong password
// when one was supplied.
func classifyRarHeaderError(err error, withPassword bool) Result {
	switch {
	case isAny(err, rarPasswordErrors):
		return wrongPassword(err)
	case withPassword && isAny(err, rarHeaderGarbage):
		return wrongPassword(err)
	default:
		return Failed(err)
	}
}

// classifyRarDataError classifies errors from decoding an entry's content.
// Decoder errors count as a wrong password only for encrypted entries.
func classifyRarDataError(err error, encrypted bool) Result {
	switch {
	case isAny(err, rarPasswordErrors):
		return wrongPassword(err)
	case encrypted && isAny(err, rarDataGarbage):
		return wrongPassword(err)
	default:
		return Failed(err)
	}
}
