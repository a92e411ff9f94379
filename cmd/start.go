package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/timecalc"
)

var startName string

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start tracking a task",
	Long: `Start tracking a task. The session is recorded on disk before this
command reports success. Without a task id a new one is generated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startName, "name", "", "Task name")
}

func runStart(cmd *cobra.Command, args []string) error {
	e := mustEnv()
	defer e.Close()

	taskID := ""
	if len(args) == 1 {
		taskID = args[0]
	} else {
		taskID = timecalc.GenerateID(time.Now())
	}
	name := startName
	if name == "" {
		name = taskID
	}

	s, started, err := e.ctrl.Start(context.Background(), taskID, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !started {
		fmt.Fprintf(os.Stderr, "Already tracking %q since %s.\n", s.TaskName, s.StartTime.Format("15:04:05"))
		os.Exit(1)
	}

	fmt.Printf("Started tracking %q at %s\n", s.TaskName, s.StartTime.Format("15:04:05"))
	fmt.Printf("  Session: %s\n", s.SessionID)
	if !e.bridge.IsHostAvailable() {
		fmt.Println("  Activity is not recorded: the host is not running (start it with \"tasktime host\").")
	}
	return nil
}
