package config

import "github.com/marco/multiclass/internal/classify"

// Rules returns the classification switches as the classifier sees them.
func (p Plugin) Rules() classify.Config {
	return classify.Config{
		YearClass:   p.YearClass,
		ScoreClass:  p.ScoreClass,
		SeriesClass: p.SeriesClass,
	}
}

// AnyRuleEnabled reports whether at least one axis is switched on.
func (p Plugin) AnyRuleEnabled() bool {
	return p.YearClass || p.ScoreClass || p.SeriesClass
}
