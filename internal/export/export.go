package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/franz/playlist-resolver/internal/match"
)

// WriteM3U writes the resolved paths as an extended M3U playlist,
// annotating every entry with the query it resolved from. Returns the
// number of entries written.
func WriteM3U(results []match.MatchResult, outputPath string) (int, error) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")

	count := 0
	for _, r := range results {
		if r.Status != match.StatusMatched {
			continue
		}
		count++
		fmt.Fprintf(&b, "\n# Track %d: %s\n# %s\n%s\n",
			count, r.Query.Display(), strings.Repeat("=", 60), r.Path)
	}

	if err := os.WriteFile(outputPath, []byte(b.String()), 0644); err != nil {
		return 0, fmt.Errorf("failed to write playlist: %w", err)
	}
	return count, nil
}

// ReportEntry is one row of the structured match report
type ReportEntry struct {
	Query  string `json:"query"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Title  string `json:"title,omitempty"`
	Path   string `json:"path,omitempty"`
	Score  int    `json:"score"`
	Method string `json:"method"`
	Status string `json:"status"`
}

// Report is the full structured outcome of one matching run
type Report struct {
	Playlist  string        `json:"playlist"`
	Total     int           `json:"total"`
	Matched   int           `json:"matched"`
	Unmatched int           `json:"unmatched"`
	Entries   []ReportEntry `json:"entries"`
}

// BuildReport converts match results into the report structure
func BuildReport(playlistName string, results []match.MatchResult) *Report {
	rep := &Report{
		Playlist: playlistName,
		Total:    len(results),
		Entries:  make([]ReportEntry, 0, len(results)),
	}

	for _, r := range results {
		if r.Status == match.StatusMatched {
			rep.Matched++
		} else {
			rep.Unmatched++
		}
		rep.Entries = append(rep.Entries, ReportEntry{
			Query:  r.Query.Display(),
			Artist: r.Query.Artist,
			Album:  r.Query.Album,
			Title:  r.Query.Title,
			Path:   r.Path,
			Score:  r.Score,
			Method: string(r.Method),
			Status: string(r.Status),
		})
	}
	return rep
}

// WriteReport writes the structured report as indented JSON
func WriteReport(playlistName string, results []match.MatchResult, outputPath string) error {
	rep := BuildReport(playlistName, results)

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// songShiftTrack is one unmatched track in a SongShift import payload
type songShiftTrack struct {
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
	Title  string `json:"title"`
	ISRC   string `json:"isrc,omitempty"`
}

// songShiftPlaylist mirrors the SongShift import envelope
type songShiftPlaylist struct {
	Service   string           `json:"service"`
	ServiceID *string          `json:"serviceId"`
	Name      string           `json:"name"`
	Tracks    []songShiftTrack `json:"tracks"`
}

// WriteSongShift writes the unresolved queries as a SongShift import
// payload so they can be re-sourced from a streaming service. Returns the
// number of tracks included.
func WriteSongShift(results []match.MatchResult, playlistName, service, outputPath string) (int, error) {
	if service == "" {
		service = "qobuz"
	}
	if playlistName == "" {
		playlistName = "Unmatched Tracks"
	}

	payload := []songShiftPlaylist{{
		Service: service,
		Name:    playlistName,
		Tracks:  make([]songShiftTrack, 0),
	}}

	for _, r := range results {
		if r.Status == match.StatusMatched {
			continue
		}
		q := r.Query
		title := q.Title
		artist := q.Artist
		if title == "" && q.Track != "" {
			// Free-text references carry everything in one field
			if a, t, ok := strings.Cut(q.Track, " - "); ok {
				artist, title = strings.TrimSpace(a), strings.TrimSpace(t)
			} else {
				title = q.Track
			}
		}
		payload[0].Tracks = append(payload[0].Tracks, songShiftTrack{
			Artist: artist,
			Album:  q.Album,
			Title:  title,
			ISRC:   q.ISRC,
		})
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
		return 0, fmt.Errorf("failed to write payload: %w", err)
	}
	return len(payload[0].Tracks), nil
}
