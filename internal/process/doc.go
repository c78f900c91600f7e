// Package process runs the per-file metadata pipeline: aggregate,
// write, verify, clean up, rename.
//
// # Pipeline
//
// One file moves through a fixed sequence of states:
//
//	skip                                  name already carries __LRE
//	empty ----------------------> cleanup aggregate has nothing to write
//	write-pending -> written              codec accepted every tag
//	              -> write-failed         terminal, file untouched
//	written       -> verified             every required field read back
//	              -> verify-failed        terminal, file untouched
//	verified      -> cleanup              sidecar deleted (failure tolerated)
//	cleanup       -> renamed              terminal success
//	              -> rename-failed        terminal, tags written, old name
//
// The sidecar is always deleted before the rename is attempted, and a
// failed delete never blocks the rename: the completion marker on the
// new name is what prevents reprocessing, not the sidecar's absence.
//
// # Aggregation
//
// Aggregate merges the sidecar fields with the file's embedded tags.
// The sidecar wins per field; embedded tags only fill gaps. Photos are
// then enriched with a star-rating keyword, export markers, and a
// place-name title when no title was found.
//
// # Writing and Verifying
//
// Each logical field fans out to several concrete tag names through a
// per-kind table (photo managers disagree on which tag they read).
// Verification re-reads the file and compares per field kind: exact
// for text, normalized for dates, set equality for keywords, component
// match for location. Keyword mismatches are logged and tolerated;
// everything else fails the run.
//
// # Usage
//
//	proc := process.NewProcessor(settings, codec, nil, func(event process.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	result, err := proc.Process(ctx, "/incoming/clip.mov")
//
// Pipeline failures land in Result.State and Result.Err rather than
// the error return, so one bad file never stops a batch.
package process
