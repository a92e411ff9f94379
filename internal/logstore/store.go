// Package logstore persists activity entries per session in SQLite.
package logstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Tiliavir/tasktime/internal/activity"
)

// FileName is the database file inside the data directory.
const FileName = "activity.db"

// Store is an append-only log of activity entries, queryable by session.
type Store struct {
	db *sqlx.DB
	// mu lets ClearAll finish before any later query runs.
	mu sync.RWMutex
}

// SessionInfo describes one session present in the log.
type SessionInfo struct {
	SessionID string
	Entries   int
	First     time.Time
	Last      time.Time
}

type entryRow struct {
	Seq         int64  `db:"seq"`
	ID          string `db:"id"`
	SessionID   string `db:"session_id"`
	AppName     string `db:"app_name"`
	WindowTitle string `db:"window_title"`
	Timestamp   string `db:"timestamp"`
	TimestampMs int64  `db:"timestamp_ms"`
}

// Open opens or creates the log at path and brings its schema up to date.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps writes serialized and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts entries in one transaction. Submission order is kept as
// the chronological order among entries with equal timestamps.
func (s *Store) Save(ctx context.Context, entries []activity.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO activity_entries
		(id, session_id, app_name, window_title, timestamp, timestamp_ms)
		VALUES (:id, :session_id, :app_name, :window_title, :timestamp, :timestamp_ms)`)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		ts := e.Timestamp.UTC()
		row := entryRow{
			ID:          e.ID,
			SessionID:   e.SessionID,
			AppName:     e.AppName,
			WindowTitle: e.WindowTitle,
			Timestamp:   ts.Format(time.RFC3339Nano),
			TimestampMs: ts.UnixMilli(),
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("Save entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Save: commit: %w", err)
	}
	return nil
}

// QueryBySession returns a session's entries in chronological order. An
// unknown session yields an empty slice.
func (s *Store) QueryBySession(ctx context.Context, sessionID string) ([]activity.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []entryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT seq, id, session_id, app_name, window_title, timestamp, timestamp_ms
		FROM activity_entries
		WHERE session_id = ?
		ORDER BY timestamp_ms, seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("QueryBySession: %w", err)
	}

	entries := make([]activity.Entry, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			ts = time.UnixMilli(r.TimestampMs).UTC()
		}
		entries = append(entries, activity.Entry{
			ID:          r.ID,
			SessionID:   r.SessionID,
			AppName:     r.AppName,
			WindowTitle: r.WindowTitle,
			Timestamp:   ts,
		})
	}
	return entries, nil
}

// Sessions lists the sessions present in the log, most recent first.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []struct {
		SessionID string `db:"session_id"`
		Entries   int    `db:"entries"`
		FirstMs   int64  `db:"first_ms"`
		LastMs    int64  `db:"last_ms"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT session_id, COUNT(*) AS entries,
		       MIN(timestamp_ms) AS first_ms, MAX(timestamp_ms) AS last_ms
		FROM activity_entries
		GROUP BY session_id
		ORDER BY last_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("Sessions: %w", err)
	}

	out := make([]SessionInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionInfo{
			SessionID: r.SessionID,
			Entries:   r.Entries,
			First:     time.UnixMilli(r.FirstMs).UTC(),
			Last:      time.UnixMilli(r.LastMs).UTC(),
		})
	}
	return out, nil
}

// ClearAll irreversibly deletes every entry. Queries issued after ClearAll
// returns never see the deleted entries.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM activity_entries`); err != nil {
		return fmt.Errorf("ClearAll: %w", err)
	}
	return nil
}
