// Package volume presents the volumes of a split archive as one contiguous
// io.ReaderAt, for decoders that expect a single seekable stream.
package volume

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

var (
	// ErrClosed is returned by ReadAt after Close.
	ErrClosed = errors.New("volume reader closed")
	// ErrShortVolume is returned when a volume holds fewer bytes than it
	// did at Open.
	ErrShortVolume = fmt.Errorf("volume shorter than at open: %w", io.ErrUnexpectedEOF)
)

// part is one volume and its position in the joined stream.
type part struct {
	path   string
	offset int64
	size   int64
}

// Reader joins an ordered list of volumes into one stream. Volume files are
// opened on first use and kept in a cache keyed by path until Close.
type Reader struct {
	parts []part
	size  int64

	mu      sync.Mutex
	handles map[string]*os.File
	closed  bool
}

// Open stats every volume and returns a Reader over their concatenation.
// No file is opened yet.
func Open(paths []string) (*Reader, error) {
	if len(paths) == 0 {
		return nil, errors.New("no volumes given")
	}

	r := &Reader{
		parts:   make([]part, 0, len(paths)),
		handles: make(map[string]*os.File),
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat volume %q: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("volume %q is a directory", p)
		}
		r.parts = append(r.parts, part{path: p, offset: r.size, size: info.Size()})
		r.size += info.Size()
	}
	return r, nil
}

// Size returns the combined size of all volumes.
func (r *Reader) Size() int64 {
	return r.size
}

// Volumes returns the number of volumes.
func (r *Reader) Volumes() int {
	return len(r.parts)
}

// ReadAt implements io.ReaderAt across volume boundaries.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}

	// First part whose end is beyond off.
	idx := sort.Search(len(r.parts), func(i int) bool {
		return r.parts[i].offset+r.parts[i].size > off
	})

	n := 0
	for n < len(p) && idx < len(r.parts) {
		pt := r.parts[idx]
		local := off + int64(n) - pt.offset
		want := len(p) - n
		if remaining := pt.size - local; int64(want) > remaining {
			want = int(remaining)
		}

		f, err := r.handle(pt.path)
		if err != nil {
			return n, err
		}

		got, err := f.ReadAt(p[n:n+want], local)
		n += got
		if err != nil && !errors.Is(err, io.EOF) {
			return n, fmt.Errorf("read volume %q: %w", pt.path, err)
		}
		if got < want {
			return n, fmt.Errorf("%w: %q", ErrShortVolume, pt.path)
		}
		idx++
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// handle returns the cached file for path, opening it on first use. A
// volume that cannot be opened leaves no entry behind.
func (r *Reader) handle(path string) (*os.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if f, ok := r.handles[path]; ok {
		return f, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open volume: %w", err)
	}
	r.handles[path] = f
	return f, nil
}

// OpenHandles returns the number of volumes currently held open.
func (r *Reader) OpenHandles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Close releases every cached volume handle. It is safe to call more than
// once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for path, f := range r.handles {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close volume %q: %w", path, err))
		}
		delete(r.handles, path)
	}
	r.closed = true
	return errors.Join(errs...)
}
