package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tiliavir/tasktime/internal/model"
)

// HomeEnv overrides the data directory when set.
const HomeEnv = "TASKTIME_HOME"

// lookbackDays bounds how far back day files are searched for a session.
const lookbackDays = 31

// BaseDir returns the root data directory ($TASKTIME_HOME or ~/.tasktime).
func BaseDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tasktime"), nil
}

// dayFilePath returns the path for the given date's JSON file.
func dayFilePath(base string, t time.Time) string {
	return filepath.Join(base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func LoadDay(base string, t time.Time) (model.DayFile, error) {
	path := dayFilePath(base, t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.DayFile{Date: t.Format("2006-01-02"), Entries: []model.Entry{}}, nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date.
func SaveDay(base string, t time.Time, df model.DayFile) error {
	return writeJSON(dayFilePath(base, t), df)
}

// AppendEntry adds a completed entry to the day file of its start date,
// replacing an entry with the same ID.
func AppendEntry(base string, entry model.Entry) error {
	day := entry.Start
	df, err := LoadDay(base, day)
	if err != nil {
		return err
	}
	for i, e := range df.Entries {
		if e.ID == entry.ID {
			df.Entries[i] = entry
			return SaveDay(base, day, df)
		}
	}
	df.Entries = append(df.Entries, entry)
	return SaveDay(base, day, df)
}

// LoadRange loads all entries in [from, to] inclusive.
func LoadRange(base string, from, to time.Time) ([]model.Entry, error) {
	var entries []model.Entry
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		df, err := LoadDay(base, d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, df.Entries...)
	}
	return entries, nil
}

// FindSessionEntry searches the day files of the last month (most recent
// first) for the completed entry of a session. It returns nil if none exists.
func FindSessionEntry(base, sessionID string, now time.Time) (*model.Entry, error) {
	for i := 0; i < lookbackDays; i++ {
		df, err := LoadDay(base, now.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		for j := len(df.Entries) - 1; j >= 0; j-- {
			if df.Entries[j].SessionID == sessionID {
				return &df.Entries[j], nil
			}
		}
	}
	return nil, nil
}

// LastEntry returns the most recently completed entry of the last month, or nil.
func LastEntry(base string, now time.Time) (*model.Entry, error) {
	for i := 0; i < lookbackDays; i++ {
		df, err := LoadDay(base, now.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		var last *model.Entry
		for j := range df.Entries {
			if last == nil || df.Entries[j].End.After(last.End) {
				last = &df.Entries[j]
			}
		}
		if last != nil {
			return last, nil
		}
	}
	return nil, nil
}

// writeJSON marshals v and writes it to path atomically: the data is
// written and synced to a temp file, renamed over path, and the directory
// is synced so the rename itself survives a crash.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	if d, err := os.Open(dir); err == nil {
		// Not every platform supports syncing a directory handle.
		_ = d.Sync()
		d.Close()
	}
	return nil
}
