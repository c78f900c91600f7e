// Package dates converts the date representations found in media
// metadata into the two canonical encodings used by the pipeline.
//
// # Encodings
//
// Clock form is what gets written into metadata tags:
//
//	clock, ok := dates.ToClock("2025-03-27T15:18:07.123-05:00")
//	// clock = "2025:03:27 15:18:07"
//
// Filename form is what the filename generator embeds:
//
//	stamp, ok := dates.ToFileStamp("2025:03:27 15:18:07")
//	// stamp = "2025_03_27"
//
// # Comparison
//
// Equal implements the tolerant comparison used during write
// verification, where tools disagree about separators, sub-second
// precision and timezone suffixes:
//
//	dates.Equal("2025:03:27 15:18:07", "2025-03-27 15:18:07-05:00") // true
package dates
