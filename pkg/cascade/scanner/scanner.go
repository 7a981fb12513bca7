// Package scanner lists the regular files under a directory tree as a lazy
// sequence. The walk runs on fastwalk in a background goroutine and is
// consumed in order by a single reader.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/cascade/pkg/cascade/logging"
)

// ErrRoot is returned when the walk root cannot be read at all.
var ErrRoot = errors.New("cannot read input directory")

// DefaultQueueSize bounds how far the walker runs ahead of the consumer
// when Options.QueueSize is not set.
const DefaultQueueSize = 64

// Options configures a walk.
type Options struct {
	// Root is the directory to walk.
	Root string

	// Exclude lists directories that are skipped together with everything
	// below them. The root itself is never excluded.
	Exclude []string

	// Workers is the number of fastwalk goroutines. Zero lets fastwalk
	// choose.
	Workers int

	// QueueSize is the number of entries buffered ahead of the consumer.
	// Zero means DefaultQueueSize.
	QueueSize int
}

// Entry is one regular file found by the walk.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

type item struct {
	entry Entry
	err   error
}

// Files validates opts.Root and returns the sequence of regular files
// below it. An unreadable root is reported here, wrapped in ErrRoot.
// Problems further down the tree are yielded as errors and the walk goes
// on. Symbolic links are not followed.
//
// The sequence is single-pass. Breaking out of the loop stops the walk.
func Files(ctx context.Context, opts Options) (iter.Seq2[Entry, error], error) {
	root, err := validateRoot(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRoot, err)
	}

	exclude := make([]string, 0, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving excluded directory %q: %w", dir, err)
		}
		exclude = append(exclude, abs)
	}

	opts.Root = root
	opts.Exclude = exclude
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	return func(yield func(Entry, error) bool) {
		walk(ctx, opts, yield)
	}, nil
}

func walk(ctx context.Context, opts Options, yield func(Entry, error) bool) {
	root, exclude := opts.Root, opts.Exclude
	log := logging.Get("scanner")

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan item, opts.QueueSize)
	walkErr := make(chan error, 1)

	send := func(it item) error {
		select {
		case items <- it:
			return nil
		case <-walkCtx.Done():
			return walkCtx.Err()
		}
	}

	go func() {
		defer close(items)
		conf := fastwalk.Config{Follow: false, NumWorkers: opts.Workers}
		walkErr <- fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
			if err := walkCtx.Err(); err != nil {
				return err
			}

			if err != nil {
				return send(item{err: fmt.Errorf("walking %s: %w", path, err)})
			}

			if d.IsDir() {
				if path != root && isExcluded(path, exclude) {
					log.Debug("skipping excluded directory", "path", path)
					return fastwalk.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return send(item{err: fmt.Errorf("stat %s: %w", path, err)})
			}
			return send(item{entry: Entry{Path: path, Size: info.Size(), ModTime: info.ModTime()}})
		})
	}()

	for it := range items {
		if !yield(it.entry, it.err) {
			cancel()
			for range items {
			}
			return
		}
	}

	if err := <-walkErr; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		yield(Entry{}, fmt.Errorf("walking %s: %w", root, err))
	}
}

// validateRoot resolves root to an absolute path and checks that it is a
// directory that can be listed.
func validateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &fs.PathError{Op: "walk", Path: abs, Err: errors.New("not a directory")}
	}
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return abs, nil
}

func isExcluded(path string, exclude []string) bool {
	for _, dir := range exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
