package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Year wrapped in parentheses or brackets is always the release year
	bracketYearPattern = regexp.MustCompile(`[\[\(]((?:18|19|20)\d{2})[\]\)]`)
	tokenSplitPattern  = regexp.MustCompile(`[.\s_]+`)
	bareYearPattern    = regexp.MustCompile(`^(?:18|19|20)\d{2}$`)
	resolutionPattern  = regexp.MustCompile(`(?i)\b(2160p|1080p|1080i|720p|720i|480p|4K)\b`)
	// Source/quality markers (kept separate from resolution)
	qualityPattern      = regexp.MustCompile(`(?i)\b(BluRay|BDRip|BRRip|WEB-DL|WEBRip|HDRip|DVDRip|HDTV)\b`)
	codecPattern        = regexp.MustCompile(`(?i)\b(x264|x265|H\.?264|H\.?265|HEVC|XviD|DivX|AVC)\b`)
	audioPattern        = regexp.MustCompile(`(?i)\b(AAC|AC3|DTS|DD5\.1|TrueHD|Atmos|DTS-HD|FLAC)\b`)
	languagePattern     = regexp.MustCompile(`(?i)\b(ita|eng|spa|fra|deu|jpn|kor|rus|chi|por|multi|dual)\b`)
	subtitlePattern     = regexp.MustCompile(`(?i)\b(sub|subs|subtitle|subtitles|subbed)\b`)
	extraInfoPattern    = regexp.MustCompile(`(?i)\b(EXTENDED|UNRATED|DIRECTOR.?S.?CUT|REMASTERED|THEATRICAL|IMAX|UHD|HDR|HDR10)\b`)
	releaseGroupPattern = regexp.MustCompile(`-[A-Za-z0-9]+$`)
	bracketPattern      = regexp.MustCompile(`\[([^\]]*)\]`)
	spacePattern        = regexp.MustCompile(`\s+`)
)

// ExtractTitleAndYear extracts the movie title and year from a filename.
// A bracketed year wins; otherwise the last bare year token that is not
// the first token is the release year, so titles such as "1917" or
// "2001 A Space Odyssey" survive.
func ExtractTitleAndYear(filename string) (title string, year int) {
	// Remove file extension
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	// Resolution goes first so "1080p" is never taken for a year
	hadMarkers := resolutionPattern.MatchString(name) || qualityPattern.MatchString(name) || codecPattern.MatchString(name)
	name = resolutionPattern.ReplaceAllString(name, " ")

	if loc := bracketYearPattern.FindStringSubmatchIndex(name); loc != nil {
		year, _ = strconv.Atoi(name[loc[2]:loc[3]])
		name = name[:loc[0]]
	} else {
		tokens := nonEmpty(tokenSplitPattern.Split(name, -1))
		for i := len(tokens) - 1; i > 0; i-- {
			if bareYearPattern.MatchString(tokens[i]) {
				year, _ = strconv.Atoi(tokens[i])
				tokens = tokens[:i]
				// Everything after the year is release noise
				hadMarkers = false
				break
			}
		}
		name = strings.Join(tokens, " ")
	}

	name = qualityPattern.ReplaceAllString(name, " ")
	name = codecPattern.ReplaceAllString(name, " ")
	name = audioPattern.ReplaceAllString(name, " ")
	name = languagePattern.ReplaceAllString(name, " ")
	name = subtitlePattern.ReplaceAllString(name, " ")
	name = extraInfoPattern.ReplaceAllString(name, " ")

	// A trailing "-GROUP" only counts when the name carried release markers
	if hadMarkers {
		name = releaseGroupPattern.ReplaceAllString(strings.TrimSpace(name), "")
	}

	name = bracketPattern.ReplaceAllString(name, " ")

	// Replace dots and underscores with spaces
	name = strings.ReplaceAll(name, ".", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = spacePattern.ReplaceAllString(name, " ")

	title = strings.Trim(strings.TrimSpace(name), "-")
	return strings.TrimSpace(title), year
}

// CleanTitle normalizes whitespace and title-cases titles that arrive all
// lower or all upper case. Mixed-case titles are kept as written.
func CleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ""
	}
	if title != strings.ToLower(title) && title != strings.ToUpper(title) {
		return title
	}
	return cases.Title(language.Und).String(title)
}

func nonEmpty(tokens []string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
