// Package activity holds the activity-capture records and the pure
// duration and per-app aggregation functions built on them.
package activity

import "time"

// TimestampLayout is the ISO 8601 layout used whenever a timestamp is
// written out as text (exports, the activity log).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is one observation of the foreground application.
// AppName is never empty; WindowTitle is empty when the app has no window.
type Snapshot struct {
	AppName     string    `json:"appName"`
	WindowTitle string    `json:"windowTitle"`
	Timestamp   time.Time `json:"timestamp"`
}

// Entry is a persisted snapshot belonging to a session.
type Entry struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	AppName     string    `json:"appName"`
	WindowTitle string    `json:"windowTitle"`
	Timestamp   time.Time `json:"timestamp"`
}

// EntryWithDuration is an Entry plus the time attributed to it.
type EntryWithDuration struct {
	Entry
	DurationMs        int64  `json:"durationMs"`
	DurationFormatted string `json:"durationFormatted"`
}

// SummaryItem is the total time spent in one application.
type SummaryItem struct {
	AppName                string `json:"appName"`
	TotalDurationMs        int64  `json:"totalDurationMs"`
	TotalDurationFormatted string `json:"totalDurationFormatted"`
	Percentage             int    `json:"percentage"`
}

// EntriesFromSnapshots stamps a batch of snapshots with the session id and
// an id per entry, keeping the sampling order.
func EntriesFromSnapshots(sessionID string, snaps []Snapshot, newID func() string) []Entry {
	entries := make([]Entry, 0, len(snaps))
	for _, s := range snaps {
		entries = append(entries, Entry{
			ID:          newID(),
			SessionID:   sessionID,
			AppName:     s.AppName,
			WindowTitle: s.WindowTitle,
			Timestamp:   s.Timestamp,
		})
	}
	return entries
}
