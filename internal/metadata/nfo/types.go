package nfo

import "encoding/xml"

// NFODocument represents a Kodi/Jellyfin .nfo XML file. The root element
// name tells movies apart from episodic content.
type NFODocument struct {
	XMLName       xml.Name
	Title         string        `xml:"title"`
	OriginalTitle string        `xml:"originaltitle"`
	Rating        string        `xml:"rating"`
	Ratings       []NFORating   `xml:"ratings>rating"`
	Year          string        `xml:"year"`
	Premiered     string        `xml:"premiered"`
	Aired         string        `xml:"aired"`
	Set           NFOSet        `xml:"set"`
	TMDBID        int           `xml:"tmdbid"`
	IMDbID        string        `xml:"imdbid"`
	UniqueIDs     []NFOUniqueID `xml:"uniqueid"`
}

// NFORating is one entry of the <ratings> block
type NFORating struct {
	Name    string `xml:"name,attr"`
	Default bool   `xml:"default,attr"`
	Value   string `xml:"value"`
}

// NFOSet is the collection a movie belongs to. Older files write the name
// as the element text, newer ones nest it in <name>.
type NFOSet struct {
	Name string `xml:"name"`
	Text string `xml:",chardata"`
}

// NFOUniqueID carries provider identifiers
type NFOUniqueID struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}
