package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/activity"
)

var logCmd = &cobra.Command{
	Use:   "log [session-id]",
	Short: "Show the activity recorded for a session",
	Long: `Show the activity recorded for a session, one line per sample with the
time until the next sample. Defaults to the most recently completed session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	e := mustEnv()
	defer e.Close()

	ref, entries := loadSessionActivity(e, args)
	printSessionHeader(os.Stdout, ref)
	printLog(os.Stdout, entries)
	return nil
}

// loadSessionActivity resolves the session named by args and loads its
// activity, exiting when there is none to show.
func loadSessionActivity(e *env, args []string) (*sessionRef, []activity.EntryWithDuration) {
	id := ""
	if len(args) == 1 {
		id = args[0]
	}

	ref, err := e.resolveSession(id, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if ref == nil {
		fmt.Fprintln(os.Stderr, "No sessions recorded yet.")
		os.Exit(1)
	}

	entries, err := e.sessionActivity(context.Background(), ref)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return ref, entries
}

func printSessionHeader(w io.Writer, ref *sessionRef) {
	name := ref.TaskName
	if name == "" {
		name = "(unknown task)"
	}
	state := ""
	if ref.Active {
		state = " [tracking]"
	}
	fmt.Fprintf(w, "Session %s: %s%s\n", ref.ID, name, state)
}

func printLog(w io.Writer, entries []activity.EntryWithDuration) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No activity recorded.")
		return
	}
	for _, e := range entries {
		title := ""
		if e.WindowTitle != "" {
			title = "  " + e.WindowTitle
		}
		fmt.Fprintf(w, "%s  %-10s %s%s\n",
			e.Timestamp.Local().Format("15:04:05"), e.DurationFormatted, e.AppName, title)
	}
}
