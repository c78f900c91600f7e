// Package model defines the core data structures used throughout
// the shuttermill pipeline.
//
// # MediaMetadata
//
// MediaMetadata is the merged metadata record for one media file,
// combining sidecar-derived and embedded-tag-derived fields:
//
//	meta := model.MediaMetadata{Title: "Sunset", Date: "2025:07:14 19:32:10"}
//	if meta.IsEmpty() { /* nothing to write */ }
//
// # Filename Generation
//
// GenerateFilename derives the canonical processed filename from an
// aggregate, and CompletionMarker is the token that marks a file as
// fully processed:
//
//	name, err := model.GenerateFilename(meta, "IMG_4821.MOV", 0)
//	// name = "2025_07_14_Sunset__LRE.mov"
//
//	model.HasCompletionMarker("2025_07_14_Sunset__LRE.mov") // true
//
// Component cleaning is exposed as CleanComponent for callers that
// need to preview how a title or place name will appear in a filename.
package model
