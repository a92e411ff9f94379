package model

import "time"

// Session is the record of the session currently being tracked.
type Session struct {
	SessionID string    `json:"session_id"`
	TaskID    string    `json:"task_id"`
	TaskName  string    `json:"task_name"`
	StartTime time.Time `json:"start_time"`
}

// Elapsed returns the time since the session started, derived from the
// start time rather than accumulated.
func (s Session) Elapsed(now time.Time) time.Duration {
	if d := now.Sub(s.StartTime); d > 0 {
		return d
	}
	return 0
}

// Entry represents a completed time entry for a task.
type Entry struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	TaskID          string    `json:"task_id"`
	TaskName        string    `json:"task_name"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMs      int64     `json:"duration_ms"`
	ActivityEntries int       `json:"activity_entries"`
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

// Account identifies the user the local activity data belongs to.
type Account struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}
