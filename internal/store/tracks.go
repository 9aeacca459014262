package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// UpsertTrack inserts or replaces a single track record
func (s *Store) UpsertTrack(t *Track) error {
	_, err := s.db.Exec(`
		INSERT INTO tracks (path, norm, mtime_unix, artist, album, title, track_number, year, format_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			norm = excluded.norm,
			mtime_unix = excluded.mtime_unix,
			artist = excluded.artist,
			album = excluded.album,
			title = excluded.title,
			track_number = excluded.track_number,
			year = excluded.year,
			format_json = excluded.format_json
	`, t.Path, t.Norm, t.MtimeUnix, t.Artist, t.Album, t.Title, t.TrackNumber, t.Year, t.FormatJSON)

	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}

	return nil
}

// UpsertTrackBatch inserts or replaces a batch of track records in one
// transaction. The batch is durable once this returns: a cancelled refresh
// loses at most the batch in flight.
func (s *Store) UpsertTrackBatch(tracks []*Track) error {
	if len(tracks) == 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO tracks (path, norm, mtime_unix, artist, album, title, track_number, year, format_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				norm = excluded.norm,
				mtime_unix = excluded.mtime_unix,
				artist = excluded.artist,
				album = excluded.album,
				title = excluded.title,
				track_number = excluded.track_number,
				year = excluded.year,
				format_json = excluded.format_json
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, t := range tracks {
			if _, err := stmt.Exec(t.Path, t.Norm, t.MtimeUnix, t.Artist, t.Album,
				t.Title, t.TrackNumber, t.Year, t.FormatJSON); err != nil {
				return fmt.Errorf("failed to upsert %s: %w", t.Path, err)
			}
		}

		return nil
	})
}

// GetTrack retrieves a track by its absolute path
func (s *Store) GetTrack(path string) (*Track, error) {
	t := &Track{}
	err := s.db.QueryRow(`
		SELECT path, norm, mtime_unix,
		       COALESCE(artist, ''), COALESCE(album, ''), COALESCE(title, ''),
		       COALESCE(track_number, ''), COALESCE(year, ''), COALESCE(format_json, '')
		FROM tracks WHERE path = ?
	`, path).Scan(
		&t.Path, &t.Norm, &t.MtimeUnix,
		&t.Artist, &t.Album, &t.Title,
		&t.TrackNumber, &t.Year, &t.FormatJSON,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	return t, nil
}

// GetMtimes returns a path -> mtime map for every track under the given
// root prefix. The refresh pass uses it to decide which files changed
// without a per-file query.
func (s *Store) GetMtimes(root string) (map[string]int64, error) {
	pattern := strings.TrimSuffix(root, "/") + "/%"
	rows, err := s.db.Query("SELECT path, mtime_unix FROM tracks WHERE path LIKE ?", pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to query mtimes: %w", err)
	}
	defer rows.Close()

	mtimes := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, fmt.Errorf("failed to scan mtime row: %w", err)
		}
		mtimes[path] = mtime
	}

	return mtimes, rows.Err()
}

// DeleteTracks removes the given paths from the catalogue
func (s *Store) DeleteTracks(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("DELETE FROM tracks WHERE path = ?")
		if err != nil {
			return fmt.Errorf("failed to prepare delete: %w", err)
		}
		defer stmt.Close()

		for _, path := range paths {
			if _, err := stmt.Exec(path); err != nil {
				return fmt.Errorf("failed to delete %s: %w", path, err)
			}
		}

		return nil
	})
}

// Lookup returns all (path, norm) pairs for matching
func (s *Store) Lookup() ([]LookupEntry, error) {
	rows, err := s.db.Query("SELECT path, norm FROM tracks")
	if err != nil {
		return nil, fmt.Errorf("failed to query lookup: %w", err)
	}
	defer rows.Close()

	var entries []LookupEntry
	for rows.Next() {
		var e LookupEntry
		if err := rows.Scan(&e.Path, &e.Norm); err != nil {
			return nil, fmt.Errorf("failed to scan lookup row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Recent returns the n most recently modified track records
func (s *Store) Recent(n int) ([]*Track, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}

	rows, err := s.db.Query(`
		SELECT path, norm, mtime_unix,
		       COALESCE(artist, ''), COALESCE(album, ''), COALESCE(title, ''),
		       COALESCE(track_number, ''), COALESCE(year, ''), COALESCE(format_json, '')
		FROM tracks
		ORDER BY mtime_unix DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		t := &Track{}
		err := rows.Scan(
			&t.Path, &t.Norm, &t.MtimeUnix,
			&t.Artist, &t.Album, &t.Title,
			&t.TrackNumber, &t.Year, &t.FormatJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// CountTracks returns the number of indexed tracks
func (s *Store) CountTracks() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// GetMeta fetches a run-metadata value, returning def when the key is unset
func (s *Store) GetMeta(key, def string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT v FROM meta WHERE k = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta stores a run-metadata value
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO meta (k, v) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}
