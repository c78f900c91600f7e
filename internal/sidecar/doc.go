// Package sidecar reads XMP sidecar documents that accompany media files.
//
// A sidecar is an RDF/XMP XML document carrying the metadata an export tool
// attached to a photo or video. This package locates the document next to
// its media file and extracts the title, keywords, caption, and location
// place names from it.
//
// # Discovery
//
// Two candidate paths are tried in order: the media filename with its
// extension replaced by .xmp, then the full filename with .xmp appended.
//
//	f, ok := sidecar.Locate("/incoming/clip.mov")
//	// tries /incoming/clip.xmp, then /incoming/clip.mov.xmp
//
// # Extraction Strategies
//
// Export tools disagree on how each field is serialized, so every field is
// extracted by an ordered list of strategies. The first strategy that
// produces a non-empty value wins and the rest are not attempted. Titles
// have five strategies ranging from the canonical dc:title alternative-text
// form down to a headline attribute used as a pseudo-title. Keywords prefer
// the hierarchical subject bag, whose entries are split on "|" into flat
// leaf keywords, over the flat subject bag. Locations are read from IPTC
// Core child elements first and from description-node attributes second.
//
// Extraction never fails: a missing or malformed document yields the zero
// Fields and a log entry, and processing of the media file continues with
// whatever embedded tags it already carries.
package sidecar
