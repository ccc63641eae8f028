package testutil

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPattern(t *testing.T) {
	data := Pattern(1024)

	assert.Len(t, data, 1024)
	assert.Equal(t, byte(0), data[0])
	assert.Equal(t, byte(250), data[250])
	assert.Equal(t, byte(0), data[251])

	// Any window must match the standalone generator for that offset.
	assert.Equal(t, data[300:400], PatternAt(300, 100))
}

func TestPatternAt(t *testing.T) {
	a := Pattern(2048)
	b := PatternAt(1000, 500)

	assert.Equal(t, a[1000:1500], b)
}

func TestCompressible(t *testing.T) {
	data := Compressible(4096)

	assert.Len(t, data, 4096)

	// The phrase is 55 bytes, so the second period equals the first.
	assert.Equal(t, data[:55], data[55:110])
}

func TestFill(t *testing.T) {
	rng := NewRNG(4711)

	buf := make([]byte, 1024)
	rng.Fill(buf)

	assert.False(t, bytes.Equal(buf, make([]byte, 1024)), "random fill should not be all zeros")
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	b1 := rng.Bytes(64)

	rng.Reset()
	b2 := rng.Bytes(64)

	assert.Equal(t, b1, b2)
}

func TestOffsets(t *testing.T) {
	rng := NewRNG(42)

	offs := rng.Offsets(100, 1<<20)

	assert.Len(t, offs, 100)
	assert.True(t, sort.SliceIsSorted(offs, func(i, j int) bool { return offs[i] < offs[j] }))

	for _, off := range offs {
		assert.GreaterOrEqual(t, off, int64(0))
		assert.Less(t, off, int64(1<<20))
	}
}
