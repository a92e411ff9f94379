package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/export"
	"github.com/Tiliavir/tasktime/internal/model"
	"github.com/Tiliavir/tasktime/internal/storage"
	"github.com/Tiliavir/tasktime/internal/timecalc"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show time per task for this week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type taskTotal struct {
	Task            string `json:"task"`
	DurationMinutes int64  `json:"duration_minutes"`
	ms              int64
}

type weekReport struct {
	Week         string      `json:"week"`
	Tasks        []taskTotal `json:"tasks"`
	TotalMinutes int64       `json:"total_minutes"`
	totalMs      int64
}

func runReport(cmd *cobra.Command, args []string) error {
	now := time.Now()

	base, err := storage.BaseDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	from, to := timecalc.WeekRange(now)
	entries, err := storage.LoadRange(base, from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := writeReport(os.Stdout, buildReport(timecalc.ISOWeekLabel(now), entries), reportFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

// buildReport totals entries per task name, sorted by name.
func buildReport(label string, entries []model.Entry) weekReport {
	totals := map[string]int64{}
	for _, e := range entries {
		totals[e.TaskName] += e.DurationMs
	}

	r := weekReport{Week: label, Tasks: []taskTotal{}}
	for task, ms := range totals {
		r.Tasks = append(r.Tasks, taskTotal{Task: task, DurationMinutes: ms / 60000, ms: ms})
		r.totalMs += ms
	}
	sort.Slice(r.Tasks, func(i, j int) bool { return r.Tasks[i].Task < r.Tasks[j].Task })
	r.TotalMinutes = r.totalMs / 60000
	return r
}

func writeReport(w io.Writer, r weekReport, format string) error {
	switch format {
	case "csv":
		fmt.Fprintln(w, "task,duration_minutes")
		for _, t := range r.Tasks {
			fmt.Fprintf(w, "%s,%d\n", export.EscapeCSVField(t.Task), t.DurationMinutes)
		}
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "md":
		fmt.Fprintf(w, "Week %s\n", r.Week)
		fmt.Fprintln(w, "--------------------------------")
		for _, t := range r.Tasks {
			fmt.Fprintf(w, "%-20s%s\n", t.Task, formatElapsed(t.ms/1000))
		}
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-20s%s\n", "Total", formatElapsed(r.totalMs/1000))
	default:
		return fmt.Errorf("unknown format %q (use md, csv or json)", format)
	}
	return nil
}
