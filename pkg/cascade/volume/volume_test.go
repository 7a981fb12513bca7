package volume

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVolumes(t *testing.T, contents ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(contents))
	for i, c := range contents {
		p := filepath.Join(dir, "set.7z.00"+string(rune('1'+i)))
		require.NoError(t, os.WriteFile(p, []byte(c), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestReader_ReadAtAcrossVolumes(t *testing.T) {
	paths := writeVolumes(t, "abcd", "efg", "hijkl")

	r, err := Open(paths)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(12), r.Size())
	assert.Equal(t, 3, r.Volumes())
	assert.Equal(t, 0, r.OpenHandles(), "volumes are opened lazily")

	buf := make([]byte, 6)
	n, err := r.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "cdefgh", string(buf))
	assert.Equal(t, 3, r.OpenHandles())

	all, err := io.ReadAll(io.NewSectionReader(r, 0, r.Size()))
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijkl", string(all))
}

func TestReader_ReadAtEnd(t *testing.T) {
	r, err := Open(writeVolumes(t, "ab", "cd"))
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 2)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "cd", string(buf[:n]))

	_, err = r.ReadAt(buf, 4)
	assert.ErrorIs(t, err, io.EOF)

	_, err = r.ReadAt(buf, -1)
	assert.Error(t, err)
}

func TestReader_HandlesAreCached(t *testing.T) {
	r, err := Open(writeVolumes(t, "one", "two"))
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 1)
	for i := 0; i < 5; i++ {
		_, err := r.ReadAt(buf, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, r.OpenHandles())
}

func TestReader_MissingVolumeDoesNotLeak(t *testing.T) {
	paths := writeVolumes(t, "one", "two")

	r, err := Open(paths)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, os.Remove(paths[1]))

	buf := make([]byte, 6)
	n, err := r.ReadAt(buf, 0)
	assert.Error(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, r.OpenHandles(), "only the volume that opened is cached")
}

func TestReader_Close(t *testing.T) {
	r, err := Open(writeVolumes(t, "one", "two"))
	require.NoError(t, err)

	buf := make([]byte, 6)
	_, err = r.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 2, r.OpenHandles())

	require.NoError(t, r.Close())
	assert.Equal(t, 0, r.OpenHandles())
	require.NoError(t, r.Close())

	_, err = r.ReadAt(buf, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReader_VolumeShrinksAfterOpen(t *testing.T) {
	paths := writeVolumes(t, "abcd", "efgh")
	r, err := Open(paths)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, os.Truncate(paths[0], 2))

	buf := make([]byte, 6)
	_, err = r.ReadAt(buf, 0)
	assert.ErrorIs(t, err, ErrShortVolume)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorContains(t, err, paths[0])
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)

	_, err = Open([]string{filepath.Join(t.TempDir(), "missing.7z.001")})
	assert.Error(t, err)

	_, err = Open([]string{t.TempDir()})
	assert.Error(t, err)
}
