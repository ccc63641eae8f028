// Package engine implements the asynchronous bulk-transfer engine behind
// bigio's chunked streams.
//
// An Engine moves whole files (or objects) into caller-owned flat buffers
// as one ordered batch of fixed-size chunk requests. Chunks are fetched by
// a bounded pool of workers and may finish out of order; the per-submission
// Ticket publishes a single monotonic completion frontier, so a consumer
// observing the frontier at N bytes knows the first N bytes are fully
// transferred, regardless of worker scheduling.
//
// # Sources
//
// Where bytes come from is abstracted behind Opener:
//
//   - Stat is the fast metadata query used on the caller's path.
//   - Open may be slow (remote round trips) and runs only on the
//     background transfer path.
//
// LocalOpener serves the local file system; see the s3 and minio
// subpackages for object stores, and package pack for compressed
// containers layered over any Opener.
//
// # Sharing
//
// One Engine is meant to be shared across many streams. Default() returns
// a lazily created process-wide engine over local files; applications that
// want limits, logging, or a different Opener construct their own with New
// and hand it to streams explicitly.
package engine
