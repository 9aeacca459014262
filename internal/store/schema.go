package store

// Schema v1 - catalogue of indexed audio files plus run metadata
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per audio file under the configured library roots.
-- The absolute path is the only stable identity of a record.
CREATE TABLE IF NOT EXISTS tracks (
  path TEXT PRIMARY KEY,
  norm TEXT NOT NULL,
  mtime_unix INTEGER NOT NULL,
  artist TEXT,
  album TEXT,
  title TEXT,
  track_number TEXT,
  year TEXT,
  format_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_tracks_norm ON tracks(norm);

-- Run metadata (last refresh timestamp and friends)
CREATE TABLE IF NOT EXISTS meta (
  k TEXT PRIMARY KEY,
  v TEXT NOT NULL
);
`

// Schema v2 - recency index for diagnostics queries
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_tracks_mtime ON tracks(mtime_unix DESC);
`
