package activity

import (
	"math"
	"sort"
)

// AggregateSummary groups entries by exact app name and sorts the groups by
// total time, longest first. Groups with equal totals keep the order in
// which they were first seen.
//
// Percentages are relative to the summed entry durations and rounded per
// item, so they may not add up to exactly 100.
func AggregateSummary(entries []EntryWithDuration) []SummaryItem {
	if len(entries) == 0 {
		return []SummaryItem{}
	}

	totals := map[string]int64{}
	var order []string
	var grandTotal int64
	for _, e := range entries {
		if _, seen := totals[e.AppName]; !seen {
			order = append(order, e.AppName)
		}
		totals[e.AppName] += e.DurationMs
		grandTotal += e.DurationMs
	}

	items := make([]SummaryItem, 0, len(order))
	for _, app := range order {
		total := totals[app]
		pct := 0
		if grandTotal > 0 {
			pct = int(math.Round(float64(total) / float64(grandTotal) * 100))
		}
		items = append(items, SummaryItem{
			AppName:                app,
			TotalDurationMs:        total,
			TotalDurationFormatted: FormatDuration(total),
			Percentage:             pct,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TotalDurationMs > items[j].TotalDurationMs
	})
	return items
}
