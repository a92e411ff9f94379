package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/model"
	"github.com/Tiliavir/tasktime/internal/storage"
	"github.com/Tiliavir/tasktime/internal/timecalc"
)

var (
	listToday bool
	listWeek  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List completed sessions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's sessions")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's sessions")
}

func runList(cmd *cobra.Command, args []string) error {
	now := time.Now()

	base, err := storage.BaseDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var from, to time.Time
	switch {
	case listWeek:
		from, to = timecalc.WeekRange(now)
	default:
		// Default to today (covers --today and the bare command).
		from = timecalc.StartOfDay(now)
		to = timecalc.EndOfDay(now)
	}

	entries, err := storage.LoadRange(base, from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	printList(entries)
	return nil
}

// printList groups entries by date and prints them.
func printList(entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return
	}

	var currentDay string
	for _, e := range entries {
		day := e.Start.Format("2006-01-02")
		if day != currentDay {
			fmt.Println(day)
			currentDay = day
		}

		activity := ""
		if e.ActivityEntries > 0 {
			activity = fmt.Sprintf(", %d samples", e.ActivityEntries)
		}
		fmt.Printf("%s–%s  %s (%s%s)\n",
			e.Start.Format("15:04"), e.End.Format("15:04"), e.TaskName,
			formatElapsed(e.DurationMs/1000), activity)
	}
}
