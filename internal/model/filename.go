package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shuttermill/shuttermill/internal/dates"
)

// CompletionMarker is the token appended to a filename, before the
// extension, once a file has been fully processed. A file whose name
// already carries the marker is terminal and is never touched again.
const CompletionMarker = "__LRE"

// ErrNoDate is returned by GenerateFilename when the aggregate has no
// usable date. Callers must keep the original filename in that case.
var ErrNoDate = errors.New("metadata has no usable date")

// maxComponentLen caps each cleaned filename component.
const maxComponentLen = 50

var (
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\-()\[\]]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// GenerateFilename builds the canonical processed filename for a media
// file from its aggregated metadata:
//
//	<date>[_<title>][_<location>][_<city>][_<country>][_<seq>]__LRE<ext>
//
// The date is mandatory and is rendered in filename form (YYYY_MM_DD).
// Title, location, city and country are cleaned with CleanComponent
// and skipped when they clean to nothing. Location, city and country
// are also skipped when already contained (case-insensitively) in the
// cleaned title or an earlier component, so "Miami Beach Sunset" does
// not gain a redundant "_Miami". A seq greater than zero appends a
// four-digit collision counter. The extension is taken from
// originalName and lowercased.
//
// The function is pure: the same aggregate and seq always produce the
// same name.
//
// Example:
//
//	meta := model.MediaMetadata{
//	    Title: "Sunset over the Alps",
//	    Date:  "2025:07:14 19:32:10",
//	    Location: model.Location{City: "Grindelwald", Country: "Switzerland"},
//	}
//	name, err := model.GenerateFilename(meta, "IMG_4821.MOV", 0)
//	// name = "2025_07_14_Sunset_over_the_Alps_Grindelwald_Switzerland__LRE.mov"
func GenerateFilename(meta MediaMetadata, originalName string, seq int) (string, error) {
	stamp, ok := dates.ToFileStamp(meta.Date)
	if !ok {
		return "", ErrNoDate
	}

	parts := []string{stamp}

	if title := CleanComponent(meta.Title); title != "" {
		parts = append(parts, title)
	}

	for _, raw := range []string{meta.Location.Location, meta.Location.City, meta.Location.Country} {
		cleaned := CleanComponent(raw)
		if cleaned == "" || containsComponent(parts[1:], cleaned) {
			continue
		}
		parts = append(parts, cleaned)
	}

	if seq > 0 {
		parts = append(parts, fmt.Sprintf("%04d", seq))
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	return strings.Join(parts, "_") + CompletionMarker + ext, nil
}

// CleanComponent normalizes one filename component.
//
// Characters outside letters, digits and the allow-list -_()[] become
// underscores, whitespace becomes underscores, runs of underscores
// collapse to one, leading and trailing underscores are trimmed, and
// the result is truncated to 50 characters. Text that looks like a
// serialized JSON object or array cleans to the empty string, as does
// anything that has nothing left after cleaning.
//
// Example:
//
//	model.CleanComponent("My Photo: A Nice/View?") // "My_Photo_A_Nice_View"
func CleanComponent(text string) string {
	if text == "" || isJSONLike(text) {
		return ""
	}

	s := disallowedRe.ReplaceAllString(text, "_")
	s = whitespaceRe.ReplaceAllString(s, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")

	if runes := []rune(s); len(runes) > maxComponentLen {
		s = string(runes[:maxComponentLen])
	}
	return s
}

// HasCompletionMarker reports whether a filename (or path) already
// carries the completion marker directly before its extension.
func HasCompletionMarker(name string) bool {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(stem, CompletionMarker)
}

// MarkedName returns the degraded processed name for a file whose
// metadata yields no generated filename: the original stem with the
// completion marker inserted before the lowercased extension.
func MarkedName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + CompletionMarker + strings.ToLower(ext)
}

// containsComponent reports whether the candidate already appears,
// case-insensitively, inside the components included so far.
func containsComponent(existing []string, candidate string) bool {
	haystack := strings.ToLower(strings.Join(existing, "_"))
	return strings.Contains(haystack, strings.ToLower(candidate))
}

// isJSONLike detects serialized JSON fragments that occasionally leak
// into title or caption tags from other tools.
func isJSONLike(text string) bool {
	s := strings.TrimSpace(text)
	if len(s) < 2 {
		return false
	}
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}
