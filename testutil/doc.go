// Package testutil provides testing utilities for bigio.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating deterministic byte payloads and
// seeded random data of arbitrary size.
//
// # Deterministic Payloads
//
//	data := testutil.Pattern(1 << 20)      // reproducible without a seed
//	tail := testutil.PatternAt(4096, 512)  // window into the same pattern
//
// # Random Payloads
//
//	rng := testutil.NewRNG(seed)
//	buf := make([]byte, 1<<20)
//	rng.Fill(buf) // incompressible
package testutil
