// Package sequence locates and advances the volume counter in multi-volume
// archive filenames and discovers the volumes of a set by checking the
// filesystem for each predicted name.
//
// No manifest records how many volumes a set has, so the increment has to
// be exact: a counter rendered with the wrong width names a file that does
// not exist and silently truncates the discovered set.
package sequence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCounter is returned when a filename contains no digit run.
var ErrNoCounter = errors.New("no volume counter in filename")

// Span is the byte range [Start, End) of the volume counter in a filename.
type Span struct {
	Start int
	End   int
}

// Len returns the width of the counter in digits.
func (s Span) Len() int {
	return s.End - s.Start
}

// FindCounterSpan returns the last maximal run of decimal digits in name.
func FindCounterSpan(name string) (Span, error) {
	end := strings.LastIndexFunc(name, isDigit)
	if end < 0 {
		return Span{}, fmt.Errorf("%w: %q", ErrNoCounter, name)
	}
	end++

	start := end - 1
	for start > 0 && isDigit(rune(name[start-1])) {
		start--
	}
	return Span{Start: start, End: end}, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// IncrementCounter returns name with its volume counter increased by one.
// The counter keeps its original width, zero padding included, as long as
// the new value fits, and grows by one digit when it does not
// ("part9" -> "part10", "7z.099" -> "7z.100", "7z.999" -> "7z.1000").
// Every character outside the counter is preserved.
func IncrementCounter(name string) (string, error) {
	span, err := FindCounterSpan(name)
	if err != nil {
		return "", err
	}

	counter := []byte(name[span.Start:span.End])
	i := len(counter) - 1
	for ; i >= 0; i-- {
		if counter[i] != '9' {
			counter[i]++
			break
		}
		counter[i] = '0'
	}
	if i < 0 {
		counter = append([]byte{'1'}, counter...)
	}

	return name[:span.Start] + string(counter) + name[span.End:], nil
}

// FileSystem is the subset of filesystem operations needed to look for
// volumes.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
}

// OSFileSystem reads the real filesystem.
type OSFileSystem struct{}

// Stat calls os.Stat.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// EnumerateVolumes returns every volume of the set that starts at first.
// Starting from the base name of first, it increments the counter and
// checks dir for the result, appending each predicted path that exists
// and stopping at the first that does not. first itself is always the
// first element.
func EnumerateVolumes(fsys FileSystem, first, dir string) ([]string, error) {
	name := filepath.Base(first)
	if _, err := FindCounterSpan(name); err != nil {
		return nil, err
	}

	volumes := []string{first}
	for {
		next, err := IncrementCounter(name)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, next)
		if _, err := fsys.Stat(path); err != nil {
			break
		}

		volumes = append(volumes, path)
		name = next
	}

	return volumes, nil
}
