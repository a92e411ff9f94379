// Package export serializes activity entries to CSV or JSON and derives
// default file names for them.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Tiliavir/tasktime/internal/activity"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// CSVHeader is the first line of every CSV export.
const CSVHeader = "timestamp,app_name,window_title,duration_seconds"

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want json or csv)", s)
}

// Generate renders entries in the given format.
func Generate(entries []activity.EntryWithDuration, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return []byte(GenerateCSV(entries)), nil
	case FormatJSON:
		s, err := GenerateJSON(entries)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// EscapeCSVField wraps a field in quotes if it contains a comma, a double
// quote, or a line break. A carriage return counts as a line break, as in
// RFC 4180, so a bare "\r" is quoted too.
func EscapeCSVField(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// GenerateCSV renders one row per entry below CSVHeader. Rows are joined by
// "\n" without a trailing newline.
func GenerateCSV(entries []activity.EntryWithDuration) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s,%s,%s,%d",
			e.Timestamp.Format(activity.TimestampLayout),
			EscapeCSVField(e.AppName),
			EscapeCSVField(e.WindowTitle),
			int64(math.Round(float64(e.DurationMs)/1000)),
		)
	}
	return b.String()
}

// GenerateJSON renders entries as an indented JSON array.
func GenerateJSON(entries []activity.EntryWithDuration) (string, error) {
	if entries == nil {
		entries = []activity.EntryWithDuration{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding JSON: %w", err)
	}
	return string(data), nil
}

// SanitizeFilename replaces characters that are invalid in file names with
// "-" and trims surrounding space. Names left empty or made only of dashes
// become "activity".
func SanitizeFilename(name string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '-'
		}
		return r
	}, name)
	s = strings.TrimSpace(s)
	if strings.Trim(s, "-") == "" {
		return "activity"
	}
	return s
}

// DefaultFilename returns "activity-<task>-<yyyy-MM-dd>.<format>" using the
// local date of at.
func DefaultFilename(taskName string, f Format, at time.Time) string {
	return fmt.Sprintf("activity-%s-%s.%s", SanitizeFilename(taskName), at.Local().Format("2006-01-02"), f)
}
