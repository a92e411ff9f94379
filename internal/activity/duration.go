package activity

import (
	"fmt"
	"time"
)

// CalculateDurations attributes to each entry the time until the next
// entry, and to the last one the time until sessionEnd. Entries must be in
// chronological order; negative gaps are clamped to zero. Gaps are taken
// between millisecond instants, so the durations of a session always sum to
// sessionEnd minus the first timestamp, in milliseconds.
func CalculateDurations(entries []Entry, sessionEnd time.Time) []EntryWithDuration {
	out := make([]EntryWithDuration, 0, len(entries))
	for i, e := range entries {
		next := sessionEnd
		if i < len(entries)-1 {
			next = entries[i+1].Timestamp
		}
		ms := next.UnixMilli() - e.Timestamp.UnixMilli()
		if ms < 0 {
			ms = 0
		}
		out = append(out, EntryWithDuration{
			Entry:             e,
			DurationMs:        ms,
			DurationFormatted: FormatDuration(ms),
		})
	}
	return out
}

// FormatDuration renders milliseconds as "< 1s", "45s", "1m 32s" or
// "1h 15m". Seconds are dropped once the duration reaches an hour.
func FormatDuration(ms int64) string {
	switch {
	case ms < 1000:
		return "< 1s"
	case ms < 60_000:
		return fmt.Sprintf("%ds", ms/1000)
	case ms < 3_600_000:
		m := ms / 60_000
		s := (ms % 60_000) / 1000
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
