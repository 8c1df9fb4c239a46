package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Transcript cache: one SQLite row per video id. Entries are kept forever —
// a cached transcript never changes, so there is no expiry and no eviction.
// The upsert runs in an implicit transaction, which keeps concurrent
// scheduled runs from leaving a partial row for the same id.

var cacheDB *sql.DB

// InitCache opens (or creates) the transcript cache database at path.
func InitCache(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return &CacheError{Op: "init", Err: fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &CacheError{Op: "init", Err: fmt.Errorf("open db: %w", err)}
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS transcripts (
		video_id   TEXT PRIMARY KEY,
		text       TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return &CacheError{Op: "init", Err: fmt.Errorf("init schema: %w", err)}
	}
	cacheDB = db
	return nil
}

// CloseCache closes the cache database. Safe to call when the cache was
// never initialized.
func CloseCache() error {
	if cacheDB == nil {
		return nil
	}
	err := cacheDB.Close()
	cacheDB = nil
	return err
}

// CacheGetTranscript looks up a cached transcript. A missing entry is
// (nil, false, nil), not an error. An uninitialized cache behaves as empty.
func CacheGetTranscript(ctx context.Context, videoID string) (*TranscriptEntry, bool, error) {
	if cacheDB == nil {
		IncrCacheMiss()
		return nil, false, nil
	}

	var text, fetchedAt string
	err := cacheDB.QueryRowContext(ctx,
		`SELECT text, fetched_at FROM transcripts WHERE video_id = ?`, videoID,
	).Scan(&text, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		IncrCacheMiss()
		return nil, false, nil
	}
	if err != nil {
		IncrCacheMiss()
		return nil, false, &CacheError{Op: "get", Err: err}
	}

	ts, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		ts = time.Time{}
	}
	IncrCacheHit()
	return &TranscriptEntry{VideoID: videoID, Text: text, FetchedAt: ts}, true, nil
}

// CachePutTranscript stores or overwrites the transcript for a video id.
// Refetching the same id writes identical content, so the overwrite is
// idempotent.
func CachePutTranscript(ctx context.Context, videoID, text string) error {
	if cacheDB == nil {
		return &CacheError{Op: "put", Err: errors.New("cache not initialized")}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := cacheDB.ExecContext(ctx,
		`INSERT INTO transcripts (video_id, text, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET text = excluded.text, fetched_at = excluded.fetched_at`,
		videoID, text, now,
	)
	if err != nil {
		return &CacheError{Op: "put", Err: err}
	}
	return nil
}
