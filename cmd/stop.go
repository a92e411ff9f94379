package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the tracked session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	e := mustEnv()
	defer e.Close()

	entry, stopped, err := e.ctrl.Stop(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !stopped {
		fmt.Fprintln(os.Stderr, "No session is being tracked.")
		os.Exit(1)
	}

	fmt.Printf("Stopped tracking %q. Elapsed: %s\n", entry.TaskName, formatElapsed(entry.DurationMs/1000))
	fmt.Printf("  Activity entries recorded: %d\n", entry.ActivityEntries)
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
