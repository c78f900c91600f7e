package model

import "strings"

// MediaMetadata is the merged metadata record for one media file.
//
// MediaMetadata combines everything the pipeline knows about a file:
//   - Title and Caption for naming and description tags
//   - Keywords for album routing and keyword tags
//   - Date in one of the two canonical encodings
//   - Location for place tags and filename components
//
// Fields are filled from the sidecar document first, then from tags
// already embedded in the file; a field that no source provides stays
// empty. The aggregate is rebuilt for every file, never cached.
//
// Example:
//
//	meta := model.MediaMetadata{
//	    Title:    "Sunset over the Alps",
//	    Keywords: []string{"Travel: Alps 2025"},
//	    Date:     "2025:07:14 19:32:10",
//	}
//	name, _ := model.GenerateFilename(meta, "IMG_4821.mov", 0)
//	// name = "2025_07_14_Sunset_over_the_Alps__LRE.mov"
type MediaMetadata struct {
	// Title is the asset title. Empty means no title was found.
	Title string

	// Keywords are flat leaf keywords in first-seen order with
	// duplicates removed. Hierarchical entries are split on "|"
	// before they reach this field.
	Keywords []string

	// Date is the capture date in "clock" form (YYYY:MM:DD HH:MM:SS)
	// or "filename" form (YYYY_MM_DD), never both at once. Helpers in
	// the dates package convert between the two.
	Date string

	// Caption is the long-form description. Empty means none.
	Caption string

	// Location groups the place fields read from the sidecar or the
	// embedded tags.
	Location Location
}

// Location holds the place components of a metadata record.
//
// Extraction strategies fill different subsets: the IPTC path sets
// Location, City and Country, while the photo-editing attribute path
// sets City, State and Country. Callers must read fields by name and
// never assume one strategy populated all four.
type Location struct {
	// Location is the sublocation or venue, the most specific part.
	Location string

	// City is the city name.
	City string

	// State is the state or province name.
	State string

	// Country is the country name.
	Country string
}

// IsZero returns true if no place component is set.
func (l Location) IsZero() bool {
	return l.Location == "" && l.City == "" && l.State == "" && l.Country == ""
}

// DisplayName joins the non-empty place components, most specific
// first, separated by single spaces. Used as a last-resort title for
// files that carry place tags but no title.
//
// Example:
//
//	Location{City: "Stuttgart", Country: "Germany"}.DisplayName()
//	// Returns "Stuttgart Germany"
func (l Location) DisplayName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.Location, l.City, l.State, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsEmpty returns true if every field of the aggregate is unset.
//
// An empty aggregate short-circuits the write/verify stage entirely:
// writing nothing is defined as a no-op success, and the pipeline
// proceeds straight to the rename step.
func (m *MediaMetadata) IsEmpty() bool {
	return m.Title == "" &&
		len(m.Keywords) == 0 &&
		m.Date == "" &&
		m.Caption == "" &&
		m.Location.IsZero()
}

// AddKeywords appends keywords that are not already present,
// preserving first-seen order. Empty strings are dropped.
func (m *MediaMetadata) AddKeywords(keywords ...string) {
	for _, kw := range keywords {
		if kw == "" || m.HasKeyword(kw) {
			continue
		}
		m.Keywords = append(m.Keywords, kw)
	}
}

// HasKeyword returns true if the exact keyword is already present.
func (m *MediaMetadata) HasKeyword(keyword string) bool {
	for _, kw := range m.Keywords {
		if kw == keyword {
			return true
		}
	}
	return false
}
