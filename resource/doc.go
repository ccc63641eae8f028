// Package resource governs the shared resources of bulk transfers: the
// number of concurrent transfer sessions, the bytes staged in flight at
// once, and the transfer bandwidth.
//
// A single Governor is meant to be shared by everything that moves bytes
// on behalf of one engine, so a misbehaving session cannot starve the
// process. A nil *Governor is valid and imposes no limits, which keeps
// call sites free of nil checks.
package resource
