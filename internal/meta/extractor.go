package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/franz/playlist-resolver/internal/store"
)

// ExtractTrack builds a catalogue record for one audio file. Tags are read
// with the tag library when possible; missing or unreadable tags fall back
// to path/filename heuristics, and the title falls back to the file stem.
// The returned record is always usable. A non-nil error only reports why
// tag reading failed so the caller can log it; it never invalidates the
// record.
func ExtractTrack(path string, mtime int64) (*store.Track, error) {
	t := &store.Track{
		Path:      path,
		MtimeUnix: mtime,
	}

	tagErr := readTags(t)

	// Path heuristics fill whatever tags did not provide
	parsed := ParsePath(path)
	if t.Artist == "" {
		t.Artist = parsed.Artist
	}
	if t.Album == "" {
		t.Album = parsed.Album
	}
	if t.Title == "" {
		t.Title = parsed.Title
	}
	if t.TrackNumber == "" && parsed.Track > 0 {
		t.TrackNumber = strconv.Itoa(parsed.Track)
	}
	if t.Year == "" && parsed.Year > 0 {
		t.Year = strconv.Itoa(parsed.Year)
	}

	if t.FormatJSON == "" {
		t.FormatJSON = "{}"
	}

	// The normalized key is derived from artist + title when both are
	// known, the bare title otherwise. Deterministic; never hand-edited.
	if t.Artist != "" {
		t.Norm = Normalize(t.Artist + " " + t.Title)
	} else {
		t.Norm = Normalize(t.Title)
	}

	return t, tagErr
}

// readTags fills t from embedded tags. Returns an error when the file
// cannot be opened or carries no readable tags.
func readTags(t *store.Track) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	t.Artist = strings.TrimSpace(m.Artist())
	t.Album = strings.TrimSpace(m.Album())
	t.Title = strings.TrimSpace(m.Title())

	if track, _ := m.Track(); track > 0 {
		t.TrackNumber = strconv.Itoa(track)
	}
	if m.Year() > 0 {
		t.Year = strconv.Itoa(m.Year())
	}

	raw := map[string]interface{}{
		"format":    m.Format(),
		"file_type": m.FileType(),
		"genre":     m.Genre(),
		"composer":  m.Composer(),
	}
	if rawJSON, err := json.Marshal(raw); err == nil {
		t.FormatJSON = string(rawJSON)
	}

	return nil
}

// ParseTrackMeta converts a catalogue record into scorer input. Tagged
// fields win; anything missing comes from the record's path.
func ParseTrackMeta(t *store.Track) ParsedMeta {
	parsed := ParsePath(t.Path)
	if t.Artist != "" {
		parsed.Artist = t.Artist
	}
	if t.Album != "" {
		parsed.Album = t.Album
	}
	if t.Title != "" {
		parsed.Title = t.Title
	}
	if t.TrackNumber != "" {
		if n, err := strconv.Atoi(t.TrackNumber); err == nil {
			parsed.Track = n
		}
	}
	if t.Year != "" {
		if y, err := strconv.Atoi(t.Year); err == nil {
			parsed.Year = y
		}
	}
	return parsed
}
