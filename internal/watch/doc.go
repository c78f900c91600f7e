// Package watch polls the incoming directories for new media.
//
// A pass has two phases. First the shared drop directory is
// distributed: every ready file is copied into each incoming directory
// and removed from the shared one. Then each incoming directory is
// scanned and its ready files run through the pipeline sequentially,
// in name order, each with a fresh four-digit sequence number.
//
// Readiness is deliberately conservative: a file must be regular,
// non-empty, untouched for its kind's minimum age, and pass an
// advisory-lock probe. Anything not ready simply waits for the next
// pass; the watcher never processes a file a producer might still be
// writing.
package watch
