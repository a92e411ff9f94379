package logstore

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// schemaSteps are applied in order; step i brings the schema to version i+1.
var schemaSteps = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS activity_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			app_name TEXT NOT NULL,
			window_title TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_entries_session
			ON activity_entries(session_id, timestamp_ms, seq)`,
	},
}

// SchemaVersion is the version a fully migrated database reports.
var SchemaVersion = len(schemaSteps)

// Version returns the schema version recorded in the database.
func (s *Store) Version() (int, error) {
	var v int
	if err := s.db.Get(&v, "SELECT db_version FROM database_version LIMIT 1"); err != nil {
		return 0, fmt.Errorf("Version: %w", err)
	}
	return v, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS database_version (db_version INTEGER NOT NULL DEFAULT 0)`); err != nil {
		return err
	}

	var count int
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM database_version"); err != nil {
		return err
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO database_version VALUES(0)"); err != nil {
			return err
		}
	}

	current, err := s.Version()
	if err != nil {
		return err
	}

	for v := current; v < len(schemaSteps); v++ {
		tx, err := s.db.Beginx()
		if err != nil {
			return err
		}
		for _, stmt := range schemaSteps[v] {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("schema version %d: %w", v+1, err)
			}
		}
		if _, err := tx.Exec("UPDATE database_version SET db_version = ?", v+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("schema version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("schema version %d: commit: %w", v+1, err)
		}
		log.Debug().Int("version", v+1).Msg("Activity log schema upgraded")
	}
	return nil
}
