package process

import (
	"sort"
	"strings"

	"github.com/shuttermill/shuttermill/internal/model"
)

// Kind classifies a media file for tag-table selection.
type Kind int

const (
	KindVideo Kind = iota
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindPhoto:
		return "photo"
	default:
		return "unknown"
	}
}

// writeTable lists the concrete tag names each logical field is written
// to. One field fans out to several tags at once because photo managers
// disagree on which tag they read; the union keeps the file legible to
// all of them.
type writeTable struct {
	Title    []string
	Date     []string
	Keywords []string
	Caption  []string
	Location []string
	City     []string
	State    []string
	Country  []string
}

// videoWrites is tuned for QuickTime/MP4 containers as Apple Photos
// reads them. QuickTime:Keywords and XMP:Subject are the two keyword
// tags Photos actually honors for videos; the rest are for other tools.
var videoWrites = writeTable{
	Title: []string{
		"XMP:Title",
		"QuickTime:Title",
		"ItemList:Title",
		"DC:Title",
	},
	Date: []string{
		"QuickTime:CreateDate",
		"QuickTime:MediaCreateDate",
		"CreateDate",
		"MediaCreateDate",
		"XMP:CreateDate",
		"XMP:DateTimeOriginal",
		"Photoshop:DateCreated",
	},
	Keywords: []string{
		"QuickTime:Keywords",
		"XMP:Subject",
		"IPTC:Keywords",
		"ItemList:Keyword",
		"Keys:Keywords",
		"XMP-dc:Subject",
		"DC:Subject",
		"UserData:Keywords",
		"QuickTime:Keyword",
	},
	Caption: []string{
		"QuickTime:Description",
		"XMP:Description",
		"ItemList:Description",
		"UserData:Description",
	},
	Location: []string{
		"XMP:Location",
		"QuickTime:LocationName",
		"Location",
		"LocationName",
	},
	City:    []string{"XMP:City", "QuickTime:City", "City"},
	State:   []string{"XMP:State", "QuickTime:State", "State"},
	Country: []string{"XMP:Country", "QuickTime:Country", "Country"},
}

// photoWrites covers the JPEG pathway. Photos arrive with their EXIF
// already populated by the export tool, so only the title backfill and
// the keyword set are ever written.
var photoWrites = writeTable{
	Title: []string{
		"Title",
		"XPTitle",
		"XMP:Title",
		"IPTC:ObjectName",
		"IPTC:Headline",
	},
	Keywords: []string{"Keywords", "XMP:Subject"},
}

// readTable lists bare tag names probed, in priority order, when a
// field has to come from the file's embedded tags instead of the
// sidecar. Matching is by suffix across all tag groups: "CreateDate"
// matches QuickTime:CreateDate, Track1:CreateDate, and so on.
type readTable struct {
	Title    []string
	Date     []string
	Keywords []string
	Caption  []string
	Location []string
	City     []string
	State    []string
	Country  []string
	Rating   []string
}

var videoReads = readTable{
	Title: []string{"Title"},
	Date: []string{
		"CreateDate",
		"ModifyDate",
		"TrackCreateDate",
		"TrackModifyDate",
		"MediaCreateDate",
		"MediaModifyDate",
	},
	Keywords: []string{"Keywords", "Subject"},
	Caption:  []string{"Description"},
	Location: []string{"Location", "LocationName"},
	City:     []string{"City"},
	State:    []string{"State"},
	Country:  []string{"Country"},
}

var photoReads = readTable{
	Title:    []string{"Title", "ObjectName", "Headline"},
	Date:     []string{"DateTimeOriginal", "CreateDate"},
	Keywords: []string{"Keywords", "Subject"},
	Caption:  []string{"Description", "Caption-Abstract"},
	Location: []string{"Location", "LocationName"},
	City:     []string{"City"},
	State:    []string{"State"},
	Country:  []string{"Country"},
	Rating:   []string{"Rating"},
}

func writesFor(kind Kind) writeTable {
	if kind == KindPhoto {
		return photoWrites
	}
	return videoWrites
}

func readsFor(kind Kind) readTable {
	if kind == KindPhoto {
		return photoReads
	}
	return videoReads
}

// lookupTag returns the first non-empty value whose tag name matches
// one of the bare candidates, scanning candidates in priority order.
// A key matches when it equals the candidate outright or ends in
// ":candidate" under any group prefix. Keys are scanned in sorted
// order so the result is stable across runs.
func lookupTag(tags map[string]string, candidates []string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, candidate := range candidates {
		for _, key := range keys {
			if !tagMatches(key, candidate) {
				continue
			}
			if value := strings.TrimSpace(tags[key]); value != "" {
				return value
			}
		}
	}
	return ""
}

func tagMatches(key, bare string) bool {
	return key == bare || strings.HasSuffix(key, ":"+bare)
}

// splitList splits a comma-joined tag value back into its entries,
// dropping empties. The codec normalizes multi-valued tags to
// comma-joined strings on read, and writes join the same way.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// fieldKind names one logical metadata field for write and verify
// bookkeeping.
type fieldKind int

const (
	fieldTitle fieldKind = iota
	fieldDate
	fieldKeywords
	fieldCaption
	fieldLocation
	fieldCity
	fieldState
	fieldCountry
)

func (f fieldKind) String() string {
	switch f {
	case fieldTitle:
		return "title"
	case fieldDate:
		return "date"
	case fieldKeywords:
		return "keywords"
	case fieldCaption:
		return "caption"
	case fieldLocation:
		return "location"
	case fieldCity:
		return "city"
	case fieldState:
		return "state"
	case fieldCountry:
		return "country"
	default:
		return "field"
	}
}

// writeOp is one logical field scheduled for writing: the value and
// every concrete tag it lands in. The verify stage re-checks exactly
// these ops, so what was written and what is verified cannot drift
// apart.
type writeOp struct {
	Field fieldKind
	Tags  []string
	Value string
}

// writeOps breaks an aggregate into one op per non-empty field.
// Keywords are comma-joined for the wire.
func writeOps(table writeTable, meta model.MediaMetadata) []writeOp {
	var ops []writeOp
	add := func(field fieldKind, tags []string, value string) {
		if value == "" || len(tags) == 0 {
			return
		}
		ops = append(ops, writeOp{Field: field, Tags: tags, Value: value})
	}
	add(fieldTitle, table.Title, meta.Title)
	add(fieldDate, table.Date, meta.Date)
	add(fieldKeywords, table.Keywords, strings.Join(meta.Keywords, ","))
	add(fieldCaption, table.Caption, meta.Caption)
	add(fieldLocation, table.Location, meta.Location.Location)
	add(fieldCity, table.City, meta.Location.City)
	add(fieldState, table.State, meta.Location.State)
	add(fieldCountry, table.Country, meta.Location.Country)
	return ops
}

// tagMap flattens ops into the tag-name to value mapping the codec
// consumes.
func tagMap(ops []writeOp) map[string]string {
	tags := make(map[string]string, len(ops)*4)
	for _, op := range ops {
		for _, tag := range op.Tags {
			tags[tag] = op.Value
		}
	}
	return tags
}
