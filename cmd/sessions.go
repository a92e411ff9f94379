package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions that have recorded activity",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	e := mustEnv()
	defer e.Close()

	infos, err := e.logs.Sessions(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(infos) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	for _, s := range infos {
		fmt.Printf("%s  %s–%s  %d entries\n", s.SessionID,
			s.First.Local().Format("2006-01-02 15:04"), s.Last.Local().Format("15:04"), s.Entries)
	}
	return nil
}
