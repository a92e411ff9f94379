package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/activity"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [session-id]",
	Short: "Show time per application for a session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	e := mustEnv()
	defer e.Close()

	ref, entries := loadSessionActivity(e, args)
	printSessionHeader(os.Stdout, ref)
	printSummary(os.Stdout, activity.AggregateSummary(entries))
	return nil
}

func printSummary(w io.Writer, items []activity.SummaryItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No activity recorded.")
		return
	}
	fmt.Fprintln(w, "--------------------------------------------")
	var total int64
	for _, it := range items {
		fmt.Fprintf(w, "%-24s%12s %5d%%\n", it.AppName, it.TotalDurationFormatted, it.Percentage)
		total += it.TotalDurationMs
	}
	fmt.Fprintln(w, "--------------------------------------------")
	fmt.Fprintf(w, "%-24s%12s\n", "Total", activity.FormatDuration(total))
}
