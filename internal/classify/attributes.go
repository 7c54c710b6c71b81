package classify

import (
	"strings"

	"github.com/marco/multiclass/internal/media"
)

// Attributes is the decision-relevant snapshot of a media item.
type Attributes struct {
	MediaType  media.Type
	Year       int
	HasYear    bool
	Score      float64
	HasScore   bool
	SeriesName string
}

// Extract builds Attributes from a descriptor. It reports false for a nil
// descriptor or anything that is not a movie; those items bypass
// classification. Missing year or score only clears the matching Has flag.
func Extract(item *media.Item) (Attributes, bool) {
	if item == nil || !item.IsMovie() {
		return Attributes{}, false
	}
	attrs := Attributes{
		MediaType:  item.Type,
		SeriesName: strings.TrimSpace(item.Collection),
	}
	if item.Year > 0 {
		attrs.Year = item.Year
		attrs.HasYear = true
	}
	// 0 is how sidecars and scrapers spell "unrated".
	if item.Rating > 0 && item.Rating <= 10 {
		attrs.Score = item.Rating
		attrs.HasScore = true
	}
	return attrs, true
}

// InSeries reports whether the item declares a collection.
func (a Attributes) InSeries() bool {
	return a.SeriesName != ""
}
