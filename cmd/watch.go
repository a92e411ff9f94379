package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/storage"
	"github.com/Tiliavir/tasktime/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of the tracked session",
	Long: `Live dashboard of the tracked session and the application in focus.

Keys: t shows the per-app breakdown of the last session, t t (twice
quickly) stops the tracked session, q quits.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	e := mustEnv()
	defer e.Close()

	err := tui.Run(cmd.Context(), tui.Options{
		Base:         e.base,
		Controller:   e.ctrl,
		Current:      e.bridge,
		Breakdown:    e.lastBreakdown,
		Poll:         e.cfg.SampleInterval(),
		DoubleWindow: e.cfg.DoublePressWindow(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running dashboard:", err)
		os.Exit(2)
	}
	return nil
}

// lastBreakdown summarizes the most recently completed session.
func (e *env) lastBreakdown(ctx context.Context) (*tui.Breakdown, error) {
	now := time.Now()
	last, err := storage.LastEntry(e.base, now)
	if err != nil || last == nil {
		return nil, err
	}
	entries, err := e.sessionActivity(ctx, &sessionRef{ID: last.SessionID, TaskName: last.TaskName, End: last.End})
	if err != nil {
		return nil, err
	}
	return &tui.Breakdown{TaskName: last.TaskName, Items: activity.AggregateSummary(entries)}, nil
}
