package process

import (
	"github.com/shuttermill/shuttermill/internal/dates"
	"github.com/shuttermill/shuttermill/internal/model"
	"github.com/shuttermill/shuttermill/internal/sidecar"
)

// Aggregate merges sidecar fields with the file's embedded tags into
// one MediaMetadata. The sidecar always wins per field; embedded tags
// only fill fields the sidecar left empty. The sidecarDate argument is
// the capture date read off the sidecar document itself (date lives in
// an exif property there, not in the RDF fields the sidecar reader
// extracts).
//
// Dates are normalized to clock form. A date that survives no parse is
// treated as absent rather than carried through in an unknown shape.
//
// Aggregation is stateless: nothing is cached between calls, the
// result is recomputed per file.
func Aggregate(kind Kind, sc sidecar.Fields, sidecarDate string, embedded map[string]string) model.MediaMetadata {
	reads := readsFor(kind)

	meta := model.MediaMetadata{
		Title:   sc.Title,
		Caption: sc.Caption,
	}
	if meta.Title == "" {
		meta.Title = lookupTag(embedded, reads.Title)
	}
	if meta.Caption == "" {
		meta.Caption = lookupTag(embedded, reads.Caption)
	}

	if len(sc.Keywords) > 0 {
		meta.AddKeywords(sc.Keywords...)
	} else {
		meta.AddKeywords(splitList(lookupTag(embedded, reads.Keywords))...)
	}

	rawDate := sidecarDate
	if rawDate == "" {
		rawDate = lookupTag(embedded, reads.Date)
	}
	if clock, ok := dates.ToClock(rawDate); ok {
		meta.Date = clock
	}

	meta.Location = sc.Location
	if meta.Location.Location == "" {
		meta.Location.Location = lookupTag(embedded, reads.Location)
	}
	if meta.Location.City == "" {
		meta.Location.City = lookupTag(embedded, reads.City)
	}
	if meta.Location.State == "" {
		meta.Location.State = lookupTag(embedded, reads.State)
	}
	if meta.Location.Country == "" {
		meta.Location.Country = lookupTag(embedded, reads.Country)
	}

	return meta
}
