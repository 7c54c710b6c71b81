package classify

import (
	"path"
	"strconv"
)

// Axis names the dimension a segment was produced by.
type Axis string

const (
	AxisSeries Axis = "series"
	AxisYear   Axis = "year"
	AxisScore  Axis = "score"
)

// SeriesRoot is the directory every series folder is nested under.
const SeriesRoot = "series"

// Score tier directory names.
const (
	TierHigh    = "高分"
	TierAverage = "一般"
	TierLow     = "垃圾"
)

// Config selects which axes are active. It is never mutated during a run.
type Config struct {
	YearClass   bool
	ScoreClass  bool
	SeriesClass bool
}

// Segment is the directory fragment one axis contributes.
type Segment struct {
	Axis Axis
	Dirs []string
}

// String renders the segment with forward slashes, e.g. "series/Matrix".
func (s Segment) String() string {
	return path.Join(s.Dirs...)
}

// Rule is a single classifier.
type Rule struct {
	Axis  Axis
	Apply func(Attributes, Config) (Segment, bool)
}

// Rules lists the classifiers in evaluation and output order.
var Rules = []Rule{
	{Axis: AxisSeries, Apply: SeriesSegment},
	{Axis: AxisYear, Apply: YearSegment},
	{Axis: AxisScore, Apply: ScoreSegment},
}

// SeriesSegment emits series/<name> for movies that belong to a collection.
func SeriesSegment(a Attributes, cfg Config) (Segment, bool) {
	if !seriesApplies(a, cfg) {
		return Segment{}, false
	}
	return Segment{Axis: AxisSeries, Dirs: []string{SeriesRoot, SanitizeDirName(a.SeriesName)}}, true
}

// YearSegment emits the decade bucket, e.g. 1994 -> "1990s".
func YearSegment(a Attributes, cfg Config) (Segment, bool) {
	if !cfg.YearClass || !a.HasYear || a.Year < 0 {
		return Segment{}, false
	}
	return Segment{Axis: AxisYear, Dirs: []string{DecadeBucket(a.Year)}}, true
}

// ScoreSegment emits the rating tier unless the series rule claims the item.
func ScoreSegment(a Attributes, cfg Config) (Segment, bool) {
	if !cfg.ScoreClass || !a.HasScore || seriesApplies(a, cfg) {
		return Segment{}, false
	}
	tier, ok := ScoreTier(a.Score)
	if !ok {
		return Segment{}, false
	}
	return Segment{Axis: AxisScore, Dirs: []string{tier}}, true
}

// DecadeBucket names the decade containing year.
func DecadeBucket(year int) string {
	return strconv.Itoa(year-year%10) + "s"
}

// ScoreTier maps a 0-10 rating onto a tier. Scores below 1 or above 9 have
// no tier. Each boundary belongs to the tier above it, so 6.9 is average
// and 7.0 is high.
func ScoreTier(score float64) (string, bool) {
	switch {
	case score < 1 || score > 9:
		return "", false
	case score >= 7:
		return TierHigh, true
	case score >= 4:
		return TierAverage, true
	default:
		return TierLow, true
	}
}

func seriesApplies(a Attributes, cfg Config) bool {
	return cfg.SeriesClass && a.InSeries() && SanitizeDirName(a.SeriesName) != ""
}
