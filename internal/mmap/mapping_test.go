package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestMapping_Open(t *testing.T) {
	content := []byte("hello, mapped world")
	path := writeTestFile(t, content)

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())

	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())

	// Idempotent close.
	require.NoError(t, m.Close())
}

func TestMapping_OpenEmpty(t *testing.T) {
	path := writeTestFile(t, nil)

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, 0, m.Size())
	assert.Empty(t, m.Bytes())
	require.NoError(t, m.Close())
}

func TestMapping_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestMapping_ReadAt(t *testing.T) {
	content := []byte("0123456789")
	path := writeTestFile(t, content)

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("3456"), buf)

	// Short read at the tail reports EOF.
	n, err = m.ReadAt(buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	// Past the end.
	_, err = m.ReadAt(buf, 10)
	assert.ErrorIs(t, err, io.EOF)

	// Negative offset.
	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestMapping_ReadAtClosed(t *testing.T) {
	path := writeTestFile(t, []byte("abc"))

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMapping_Advise(t *testing.T) {
	path := writeTestFile(t, []byte("advise me"))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Advise(AccessSequential))
	assert.NoError(t, m.Advise(AccessRandom))

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Advise(AccessWillNeed), ErrClosed)
}
