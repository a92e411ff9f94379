package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/storage"
	"github.com/Tiliavir/tasktime/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the tracked session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()

	e := mustEnv()
	defer e.Close()

	host := "not running"
	if e.bridge.IsHostAvailable() {
		host = "running"
	}

	if active := e.ctrl.Active(); active != nil {
		fmt.Println("Tracking:")
		fmt.Printf("  Task: %s (%s)\n", active.TaskName, active.TaskID)
		fmt.Printf("  Since: %s\n", active.StartTime.Format("15:04"))
		fmt.Printf("  Elapsed: %s\n", timecalc.FormatClock(active.Elapsed(now)))
		fmt.Printf("  Host: %s\n", host)
		return nil
	}

	// Idle: show today's total.
	df, err := storage.LoadDay(e.base, now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var totalMs int64
	for _, entry := range df.Entries {
		totalMs += entry.DurationMs
	}

	fmt.Println("No session is being tracked.")
	fmt.Printf("Today: %s tracked.\n", formatElapsed(totalMs/1000))
	fmt.Printf("Host: %s\n", host)
	return nil
}
