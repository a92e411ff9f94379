package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the application that has focus right now",
	Args:  cobra.NoArgs,
	RunE:  runCurrent,
}

func runCurrent(cmd *cobra.Command, args []string) error {
	e := mustEnv()
	defer e.Close()

	res := e.bridge.GetCurrent(context.Background())
	switch {
	case res.Unavailable():
		fmt.Println("Host not running; start it with \"tasktime host\".")
		return nil
	case !res.Success:
		fmt.Fprintln(os.Stderr, res.Err())
		os.Exit(2)
	case res.Data == nil:
		fmt.Println("No foreground activity detected.")
		return nil
	}

	fmt.Printf("App: %s\n", res.Data.AppName)
	if res.Data.WindowTitle != "" {
		fmt.Printf("Window: %s\n", res.Data.WindowTitle)
	}
	fmt.Printf("At: %s\n", res.Data.Timestamp.Local().Format("15:04:05"))
	return nil
}
