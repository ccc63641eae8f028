package testutil

import (
	"math/rand"
	"sync"
)

// patternPeriod is prime so the pattern never lines up with power-of-two
// chunk or page boundaries. A copy that is shifted by even one byte
// mismatches immediately.
const patternPeriod = 251

// Pattern returns n deterministic bytes. The same call always returns the
// same payload, so readers can verify any window of a fixture file with
// PatternAt instead of keeping the whole file in memory.
func Pattern(n int) []byte {
	return PatternAt(0, n)
}

// PatternAt returns the n pattern bytes starting at offset off.
func PatternAt(off int64, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte((off + int64(i)) % patternPeriod)
	}
	return data
}

// Compressible returns n bytes of repetitive text-like data that
// compresses well under both LZ4 and ZSTD.
func Compressible(n int) []byte {
	const phrase = "the quick brown fox jumps over the lazy dog 0123456789 "

	data := make([]byte, n)
	for i := 0; i < n; i += len(phrase) {
		copy(data[i:], phrase)
	}
	return data
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random int64 in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Fill fills dst with pseudo-random bytes. The output is effectively
// incompressible, which makes it useful for exercising compression
// fallback paths. Locks only once per call.
func (r *RNG) Fill(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Read(dst) //nolint:errcheck // never fails per math/rand contract
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	data := make([]byte, n)
	r.Fill(data)
	return data
}

// Offsets returns count pseudo-random offsets in [0, size), sorted
// ascending. Useful for sampled verification of large files.
func (r *RNG) Offsets(count int, size int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	offs := make([]int64, count)
	for i := range offs {
		offs[i] = r.rand.Int63n(size)
	}

	for i := 1; i < len(offs); i++ {
		for j := i; j > 0 && offs[j] < offs[j-1]; j-- {
			offs[j], offs[j-1] = offs[j-1], offs[j]
		}
	}

	return offs
}
