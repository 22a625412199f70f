package search

import "strings"

// Separator patterns tried in order when splitting an uploaded title
// into artist and track name. Dash variants come first because they are
// by far the most common convention.
var titleSeparators = []string{
	" - ", " – ", " — ", " | ", ": ",
}

const (
	maxArtistLength = 50
	minSplitTitle   = 3
)

// SplitArtistTitle extracts artist and track name from a raw upload
// title. When no pattern yields a plausible split, the uploader name is
// used as the artist; an empty artist means the caller should
// substitute its own placeholder.
func SplitArtistTitle(raw, uploader string) (artist, title string) {
	raw = strings.TrimSpace(raw)

	for _, sep := range titleSeparators {
		idx := strings.Index(raw, sep)
		if idx < 0 {
			continue
		}
		a := strings.TrimSpace(raw[:idx])
		t := strings.TrimSpace(raw[idx+len(sep):])
		if plausibleSplit(a, t) {
			return a, t
		}
	}

	// "Artist «Track»" and the straight-quote variant.
	for _, pair := range [][2]string{{"«", "»"}, {"“", "”"}} {
		open := strings.Index(raw, pair[0])
		closing := strings.LastIndex(raw, pair[1])
		if open > 0 && closing > open {
			a := strings.TrimSpace(raw[:open])
			t := strings.TrimSpace(raw[open+len(pair[0]) : closing])
			if plausibleSplit(a, t) {
				return a, t
			}
		}
	}

	return strings.TrimSpace(uploader), raw
}

func plausibleSplit(artist, title string) bool {
	return artist != "" && len(artist) < maxArtistLength && len(title) > minSplitTitle
}
