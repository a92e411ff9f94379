package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Tiliavir/tasktime/internal/model"
)

const (
	activeFile  = "active.json"
	accountFile = "account.json"
)

// ActiveSessionPath returns the path of the active-session record.
func ActiveSessionPath(base string) string {
	return filepath.Join(base, activeFile)
}

// LoadActiveSession reads the active-session record. It returns nil, nil
// when no session is being tracked.
func LoadActiveSession(base string) (*model.Session, error) {
	path := ActiveSessionPath(base)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return nil, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return &s, nil
}

// SaveActiveSession durably writes the active-session record. When it
// returns nil the record is on disk.
func SaveActiveSession(base string, s model.Session) error {
	return writeJSON(ActiveSessionPath(base), s)
}

// ClearActiveSession removes the active-session record. Removing a missing
// record is not an error.
func ClearActiveSession(base string) error {
	path := ActiveSessionPath(base)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage error removing %s: %w", path, err)
	}
	return nil
}

// LoadAccount returns the stored account, or nil when none was recorded.
func LoadAccount(base string) (*model.Account, error) {
	path := filepath.Join(base, accountFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	var a model.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("corrupt JSON in %s: %w", path, err)
	}
	return &a, nil
}

// SaveAccount records the current account.
func SaveAccount(base string, a model.Account) error {
	return writeJSON(filepath.Join(base, accountFile), a)
}

// Store binds the file-based storage functions to one data directory.
type Store struct {
	Base string
}

// NewStore returns a Store rooted at base.
func NewStore(base string) *Store {
	return &Store{Base: base}
}

func (s *Store) LoadActive() (*model.Session, error) { return LoadActiveSession(s.Base) }

func (s *Store) SaveActive(sess model.Session) error { return SaveActiveSession(s.Base, sess) }

func (s *Store) ClearActive() error { return ClearActiveSession(s.Base) }

func (s *Store) AppendCompleted(e model.Entry) error { return AppendEntry(s.Base, e) }
