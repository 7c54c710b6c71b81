package nfo

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/marco/multiclass/internal/media"
)

// ErrNotFound is returned when no sidecar exists next to a video file.
var ErrNotFound = errors.New("no .nfo file found")

// Parser handles parsing of .nfo files
type Parser struct{}

// NewParser creates a new NFO parser instance
func NewParser() *Parser {
	return &Parser{}
}

// FindNFOFile locates the .nfo file for a given video file
// Priority order:
// 1. {filename}.nfo (e.g., "The Matrix (1999).nfo")
// 2. movie.nfo (Jellyfin standard)
func (p *Parser) FindNFOFile(videoPath string) (string, error) {
	dir := filepath.Dir(videoPath)
	baseName := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	for _, candidate := range []string{baseName + ".nfo", "movie.nfo"} {
		path := filepath.Join(dir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w for %s", ErrNotFound, videoPath)
}

// ParseNFOFile reads and parses an .nfo XML file
func (p *Parser) ParseNFOFile(nfoPath string) (*NFODocument, error) {
	data, err := os.ReadFile(nfoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .nfo file: %w", err)
	}

	var doc NFODocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse .nfo XML: %w", err)
	}

	return &doc, nil
}

// ConvertToItem transforms NFO data into a media descriptor
func (p *Parser) ConvertToItem(doc *NFODocument) *media.Item {
	item := &media.Item{
		Type:          rootType(doc.XMLName.Local),
		Title:         strings.TrimSpace(doc.Title),
		OriginalTitle: strings.TrimSpace(doc.OriginalTitle),
		Year:          parseYear(doc.Year),
		Rating:        parseRating(doc),
		Collection:    doc.Set.name(),
		TMDBID:        doc.TMDBID,
		IMDbID:        strings.TrimSpace(doc.IMDbID),
	}

	// Parse year from premiered date if year is missing
	if item.Year == 0 {
		for _, date := range []string{doc.Premiered, doc.Aired} {
			if t, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err == nil {
				item.Year = t.Year()
				break
			}
		}
	}

	for _, id := range doc.UniqueIDs {
		value := strings.TrimSpace(id.Value)
		switch strings.ToLower(id.Type) {
		case "tmdb":
			if item.TMDBID == 0 {
				item.TMDBID, _ = strconv.Atoi(value)
			}
		case "imdb":
			if item.IMDbID == "" {
				item.IMDbID = value
			}
		}
	}

	return item
}

// GetItemFromNFO is the main entry point: finds, parses, and converts the
// sidecar next to videoPath.
func (p *Parser) GetItemFromNFO(videoPath string) (*media.Item, error) {
	nfoPath, err := p.FindNFOFile(videoPath)
	if err != nil {
		return nil, err
	}

	doc, err := p.ParseNFOFile(nfoPath)
	if err != nil {
		return nil, err
	}

	return p.ConvertToItem(doc), nil
}

func rootType(root string) media.Type {
	switch strings.ToLower(root) {
	case "tvshow", "episodedetails", "season":
		return media.TypeTV
	case "movie":
		return media.TypeMovie
	default:
		return media.Type(strings.ToLower(root))
	}
}

func (s NFOSet) name() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return strings.TrimSpace(s.Text)
}

func parseYear(value string) int {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || year < 0 {
		return 0
	}
	return year
}

// parseRating prefers the plain <rating> element and falls back to the
// default entry of <ratings>, then to the first one.
func parseRating(doc *NFODocument) float64 {
	if r, ok := parseFloat(doc.Rating); ok {
		return r
	}
	for _, r := range doc.Ratings {
		if r.Default {
			if v, ok := parseFloat(r.Value); ok {
				return v
			}
		}
	}
	for _, r := range doc.Ratings {
		if v, ok := parseFloat(r.Value); ok {
			return v
		}
	}
	return 0
}

func parseFloat(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
