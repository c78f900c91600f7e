package process

import (
	"fmt"
	"strconv"

	"github.com/shuttermill/shuttermill/internal/dates"
	"github.com/shuttermill/shuttermill/internal/model"
)

// Export markers stamped onto every photo that moves through the
// pipeline. The dated form records when the photo was processed, in
// filename date form so the keyword survives tools that mangle colons.
const (
	exportKeyword       = "Lightroom_Export"
	exportKeywordPrefix = "Lightroom_Export_on_"
)

// enrichPhoto adds the photo-only supplements to an aggregate before
// it is written: the star-rating keyword, the export markers, and a
// place-name title for photos that carry location tags but no title.
// Photos therefore never produce an empty aggregate; at minimum the
// rating and export keywords are written back.
func (p *Processor) enrichPhoto(meta *model.MediaMetadata, embedded map[string]string) {
	meta.AddKeywords(ratingKeyword(embedded))
	meta.AddKeywords(exportKeyword, exportKeywordPrefix+dates.FileStamp(p.now()))

	if meta.Title == "" {
		meta.Title = meta.Location.DisplayName()
	}
}

// ratingKeyword maps the numeric Rating tag to its keyword form. The
// scale is shifted down by one: a one-star rating in the editor is the
// baseline "0-star", five stars become "4-star". Absent or unparseable
// ratings are baseline too.
func ratingKeyword(embedded map[string]string) string {
	rating, err := strconv.Atoi(lookupTag(embedded, photoReads.Rating))
	if err != nil || rating <= 1 {
		return "0-star"
	}
	return fmt.Sprintf("%d-star", rating-1)
}
