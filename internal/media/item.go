// Package media holds the media-item descriptor produced by metadata
// resolution and consumed by classification.
package media

import (
	"strconv"
	"strings"
)

// Type distinguishes movies from episodic content.
type Type string

const (
	TypeMovie Type = "movie"
	TypeTV    Type = "tv"
)

// ParseType maps user and sidecar spellings onto a Type. Unknown values
// are returned as-is so callers can still tell they are not movies.
func ParseType(value string) Type {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "movie", "movies", "film", "电影":
		return TypeMovie
	case "tv", "show", "series", "episode", "tvshow", "电视剧":
		return TypeTV
	default:
		return Type(strings.ToLower(strings.TrimSpace(value)))
	}
}

// Item describes a resolved media item. Zero Year or Rating means unknown.
type Item struct {
	Type          Type    `yaml:"type" json:"type"`
	Title         string  `yaml:"title" json:"title"`
	OriginalTitle string  `yaml:"originalTitle,omitempty" json:"original_title,omitempty"`
	Year          int     `yaml:"year" json:"year"`
	Rating        float64 `yaml:"rating" json:"rating"`
	Collection    string  `yaml:"collection,omitempty" json:"collection,omitempty"`
	TMDBID        int     `yaml:"tmdbId,omitempty" json:"tmdb_id,omitempty"`
	IMDbID        string  `yaml:"imdbId,omitempty" json:"imdb_id,omitempty"`
}

// IsMovie reports whether the item is a movie.
func (i *Item) IsMovie() bool {
	return i != nil && i.Type == TypeMovie
}

// DisplayTitle returns "Title (Year)" when the year is known.
func (i *Item) DisplayTitle() string {
	if i == nil {
		return ""
	}
	title := strings.TrimSpace(i.Title)
	if title == "" {
		title = strings.TrimSpace(i.OriginalTitle)
	}
	if i.Year > 0 && title != "" {
		return title + " (" + strconv.Itoa(i.Year) + ")"
	}
	return title
}
