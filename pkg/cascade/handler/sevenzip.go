package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"

	"github.com/jamesainslie/cascade/pkg/cascade/classify"
	"github.com/jamesainslie/cascade/pkg/cascade/sequence"
	"github.com/jamesainslie/cascade/pkg/cascade/volume"
)

// ErrChecksum is returned when an entry's decoded content does not match
// the CRC recorded for it in the archive.
var ErrChecksum = errors.New("entry checksum mismatch")

// encryptionCheckSize is how much of an entry is decoded twice to tell an
// encrypted entry from a corrupt one.
const encryptionCheckSize = 4 << 10

// SevenZip extracts 7z archives, single-volume or split into numbered
// volumes (.7z.001, .7z.002, ...).
type SevenZip struct {
	fsys sequence.FileSystem
}

// NewSevenZip returns the 7z handler.
func NewSevenZip() *SevenZip {
	return &SevenZip{fsys: sequence.OSFileSystem{}}
}

// Extract implements FormatHandler.
func (s *SevenZip) Extract(ctx context.Context, req Request) Result {
	if err := begin(req, classify.FormatSevenZip); err != nil {
		return Failed(err)
	}
	return s.extractVolumes(ctx, []string{req.Archive}, req)
}

// ExtractMultipart implements FormatHandler. The volumes are found by
// checking the first volume's directory and read as one stream.
func (s *SevenZip) ExtractMultipart(ctx context.Context, req Request) Result {
	if err := begin(req, classify.FormatSevenZip); err != nil {
		return Failed(err)
	}

	paths, err := sequence.EnumerateVolumes(s.fsys, req.Archive, filepath.Dir(req.Archive))
	if err != nil {
		return Failed(err)
	}
	return s.extractVolumes(ctx, paths, req)
}

func (s *SevenZip) extractVolumes(ctx context.Context, paths []string, req Request) Result {
	vr, err := volume.Open(paths)
	if err != nil {
		return Failed(err)
	}
	defer vr.Close()

	r, err := sevenzip.NewReaderWithPassword(vr, vr.Size(), req.Password)
	if err != nil {
		return classifySevenZipError(fmt.Errorf("opening 7z (%d volumes): %w", len(paths), err))
	}

	w := newEntryWriter(req.OutputDir)
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return Failed(err)
		}

		if f.FileInfo().IsDir() {
			if err := w.dir(f.Name); err != nil {
				return Failed(err)
			}
			continue
		}

		if err := extractSevenZipEntry(ctx, w, f); err != nil {
			switch {
			case errors.Is(err, ErrUnsafePath), ctx.Err() != nil:
				return Failed(err)
			case errors.Is(err, ErrChecksum):
				if entryIsEncrypted(vr, vr.Size(), f.Name, req.Password) {
					return wrongPassword(err)
				}
				return Failed(err)
			default:
				return classifySevenZipError(err)
			}
		}
	}

	logger().Debug("7z extracted", "archive", req.Archive, "volumes", len(paths), "entries", w.entries)
	return w.result()
}

func extractSevenZipEntry(ctx context.Context, w *entryWriter, f *sevenzip.File) error {
	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer r.Close()

	var src io.Reader = r
	if f.CRC32 != 0 || f.UncompressedSize == 0 {
		src = &crcReader{r: r, hash: crc32.NewIEEE(), want: f.CRC32}
	}
	if err := w.file(ctx, f.Name, f.Mode(), src); err != nil {
		return fmt.Errorf("extracting entry %s: %w", f.Name, err)
	}
	return nil
}

// crcReader checks the CRC of everything read once the stream ends. The
// decoder leaves this to the caller, and for encrypted entries stored
// without compression it is the only sign of a wrong key.
type crcReader struct {
	r    io.Reader
	hash hash.Hash32
	want uint32
}

func (c *crcReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.hash.Write(p[:n])
	if errors.Is(err, io.EOF) && c.hash.Sum32() != c.want {
		return n, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, c.hash.Sum32(), c.want)
	}
	return n, err
}

// entryIsEncrypted reports whether the leading content of entry name
// depends on the password. The decoder does not say which folders are
// encrypted, and a stored entry decrypted with a wrong key differs from a
// corrupt one only in that.
func entryIsEncrypted(ra io.ReaderAt, size int64, name, password string) bool {
	first, err := entryPrefix(ra, size, name, password)
	if err != nil {
		return isEncryptedReadError(err)
	}
	second, err := entryPrefix(ra, size, name, password+"\x00")
	if err != nil {
		return isEncryptedReadError(err)
	}
	return !bytes.Equal(first, second)
}

func entryPrefix(ra io.ReaderAt, size int64, name, password string) ([]byte, error) {
	r, err := sevenzip.NewReaderWithPassword(ra, size, password)
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		buf, err := io.ReadAll(io.LimitReader(rc, encryptionCheckSize))
		if err != nil {
			return nil, err
		}
		return buf, nil
	}
	return nil, fs.ErrNotExist
}

func isEncryptedReadError(err error) bool {
	var re *sevenzip.ReadError
	return errors.As(err, &re) && re.Encrypted
}

// classifySevenZipError maps errors from encrypted streams to
// WrongPassword. With a wrong key AES yields garbage that the decompressor
// or the header parser rejects. I/O faults on the archive or its volumes
// stay failures whatever the encryption.
func classifySevenZipError(err error) Result {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) ||
		errors.Is(err, volume.ErrShortVolume) ||
		errors.Is(err, volume.ErrClosed) ||
		errors.Is(err, os.ErrClosed) {
		return Failed(err)
	}
	if isEncryptedReadError(err) {
		return wrongPassword(err)
	}
	return Failed(err)
}
