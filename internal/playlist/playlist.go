package playlist

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/franz/playlist-resolver/internal/match"
	"github.com/franz/playlist-resolver/internal/meta"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Playlist is a parsed playlist: its display name and the queries to
// resolve, order-preserved.
type Playlist struct {
	Name    string
	Queries []match.Query
}

// Parse reads a playlist file, dispatching on extension. Supported
// formats: m3u/m3u8/txt, json, csv, xlsx.
func Parse(path string) (*Playlist, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("playlist not found: %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u", ".m3u8", ".txt":
		return parseM3U(path)
	case ".json":
		return parseJSON(path)
	case ".csv":
		return parseCSV(path)
	case ".xlsx", ".xls":
		return parseXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported playlist format: %s", filepath.Ext(path))
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseM3U reads a flat M3U/M3U8 playlist: one reference per line,
// comments skipped. Files exported by older tools are often Latin-1, so
// invalid UTF-8 falls back to a charmap decode.
func parseM3U(path string) (*Playlist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	text := string(raw)
	if !utf8.Valid(raw) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if decErr != nil {
			decoded, decErr = charmap.Windows1252.NewDecoder().Bytes(raw)
		}
		if decErr != nil {
			return nil, fmt.Errorf("failed to decode playlist: %w", decErr)
		}
		text = string(decoded)
	}

	pl := &Playlist{Name: stem(path)}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pl.Queries = append(pl.Queries, refineQuery(match.Query{Track: line, Raw: line}))
	}
	return pl, nil
}

// jsonTrack is one entry in a service export payload
type jsonTrack struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Title  string `json:"title"`
	Track  string `json:"track"`
	ISRC   string `json:"isrc"`
}

// jsonPlaylist is the envelope used by service exports: either a single
// object or a one-element list of {name, tracks}
type jsonPlaylist struct {
	Name   string      `json:"name"`
	Tracks []jsonTrack `json:"tracks"`
}

func parseJSON(path string) (*Playlist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	var envelope jsonPlaylist
	if err := json.Unmarshal(raw, &envelope); err != nil {
		var list []jsonPlaylist
		if listErr := json.Unmarshal(raw, &list); listErr != nil || len(list) == 0 {
			return nil, fmt.Errorf("failed to parse playlist JSON: %w", err)
		}
		envelope = list[0]
	}

	pl := &Playlist{Name: envelope.Name}
	if pl.Name == "" {
		pl.Name = stem(path)
	}
	for _, t := range envelope.Tracks {
		pl.Queries = append(pl.Queries, match.Query{
			Artist: strings.TrimSpace(t.Artist),
			Album:  strings.TrimSpace(t.Album),
			Title:  strings.TrimSpace(t.Title),
			Track:  strings.TrimSpace(t.Track),
			ISRC:   strings.TrimSpace(t.ISRC),
		})
	}
	return pl, nil
}

func parseCSV(path string) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist CSV: %w", err)
	}
	if len(rows) == 0 {
		return &Playlist{Name: stem(path)}, nil
	}

	pl := &Playlist{Name: stem(path)}
	for _, q := range rowsToQueries(rows) {
		pl.Queries = append(pl.Queries, q)
	}
	return pl, nil
}

func parseXLSX(path string) (*Playlist, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Playlist{Name: stem(path)}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}

	pl := &Playlist{Name: stem(path)}
	for _, q := range rowsToQueries(rows) {
		pl.Queries = append(pl.Queries, q)
	}
	return pl, nil
}

// rowsToQueries maps tabular rows onto queries via a lowercase header row
func rowsToQueries(rows [][]string) []match.Query {
	if len(rows) < 2 {
		return nil
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []match.Query
	for _, row := range rows[1:] {
		q := match.Query{
			Artist: cell(row, "artist"),
			Album:  cell(row, "album"),
			Title:  cell(row, "title"),
			Track:  cell(row, "track"),
			ISRC:   cell(row, "isrc"),
		}
		if q.Title == "" {
			q.Title = cell(row, "song")
		}
		if q.IsEmpty() {
			continue
		}
		out = append(out, q)
	}
	return out
}

// refineQuery improves a bare free-text reference. Path-like references
// get their artist/album/title recovered from the path structure;
// "Artist - Title" lines are split.
func refineQuery(q match.Query) match.Query {
	ref := q.Track
	if looksLikePath(ref) {
		parsed := meta.ParsePath(ref)
		q.Artist = parsed.Artist
		q.Album = parsed.Album
		q.Title = parsed.Title
		return q
	}

	if artist, title, ok := strings.Cut(ref, " - "); ok {
		q.Artist = strings.TrimSpace(artist)
		q.Title = strings.TrimSpace(title)
	}
	return q
}

func looksLikePath(s string) bool {
	if !strings.Contains(s, "/") && !strings.Contains(s, "\\") {
		return false
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".flac", ".mp3", ".m4a", ".ogg", ".opus", ".wav", ".aac", ".aiff", ".wma":
		return true
	}
	return strings.Count(s, "/") >= 2
}
