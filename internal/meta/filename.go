package meta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ParsedMeta holds metadata inferred for one side of a match comparison,
// either from tags or from path/filename heuristics. It is recomputed on
// demand and owned by the caller; the scorer is its only consumer.
type ParsedMeta struct {
	Artist   string
	Album    string
	Title    string
	Track    int
	Year     int
	Duration float64 // seconds, 0 when unknown
	Path     string
}

var (
	leadingTrackPat = regexp.MustCompile(`^(\d{1,3})[\s_.-]+(.+)$`)
	yearPat         = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// ParsePath extracts best-effort metadata from an audio file path.
// Handles the common layouts:
//
//	/lib/Artist/Album/02 Title.flac
//	/lib/Artist - Album/Title.flac
//	Artist - Title.flac
//	Artist - (2020) Album - 02. Title.flac
func ParsePath(path string) ParsedMeta {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	m := ParsedMeta{Path: path}

	// Leading track number: "01 - ..." or "1. ..."
	if match := leadingTrackPat.FindStringSubmatch(title); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			m.Track = n
		}
		title = strings.TrimSpace(match[2])
	}

	// "Artist - rest" prefix
	if first, rest, ok := strings.Cut(title, " - "); ok && len(first) <= 80 {
		if a := strings.TrimSpace(first); a != "" {
			m.Artist = a
		}
		if r := strings.TrimSpace(rest); r != "" {
			title = r
		}
	}

	// "Artist - (2020) Album - 02. Title": the remainder still contains
	// album segments followed by a numbered title
	if m.Artist != "" && strings.Contains(title, " - ") {
		segs := splitSegments(title)
		if len(segs) >= 2 {
			last := segs[len(segs)-1]
			if match := leadingTrackPat.FindStringSubmatch(last); match != nil {
				if m.Track == 0 {
					if n, err := strconv.Atoi(match[1]); err == nil {
						m.Track = n
					}
				}
				title = strings.TrimSpace(match[2])
				m.Album = strings.Join(segs[:len(segs)-1], " - ")
			}
		}
	}
	m.Title = title

	// Derive album and artist from the directory structure
	dir := filepath.Dir(path)
	parent := filepath.Base(dir)
	grandParent := filepath.Base(filepath.Dir(dir))

	if m.Artist == "" || m.Album == "" {
		if a, b, ok := strings.Cut(parent, " - "); ok {
			if m.Artist == "" && strings.TrimSpace(a) != "" {
				m.Artist = strings.TrimSpace(a)
			}
			if m.Album == "" && strings.TrimSpace(b) != "" {
				m.Album = strings.TrimSpace(b)
			}
		} else {
			if m.Album == "" && parent != "." && parent != string(filepath.Separator) {
				m.Album = parent
			}
			if m.Artist == "" && grandParent != "." && grandParent != string(filepath.Separator) {
				m.Artist = grandParent
			}
		}
	}

	// Year hint, preferring the album component over deeper path parts
	scanOrder := []string{m.Album, parent, base, dir}
	for _, comp := range scanOrder {
		if comp == "" {
			continue
		}
		if ym := yearPat.FindString(comp); ym != "" {
			if y, err := strconv.Atoi(ym); err == nil {
				m.Year = y
			}
			break
		}
	}

	return m
}

func splitSegments(s string) []string {
	var segs []string
	for _, seg := range strings.Split(s, " - ") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}
