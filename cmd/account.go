package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/model"
	"github.com/Tiliavir/tasktime/internal/storage"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the account local activity belongs to",
	Args:  cobra.NoArgs,
	RunE:  runAccount,
}

var accountUseCmd = &cobra.Command{
	Use:   "use <account-id>",
	Short: "Switch account, deleting activity recorded for the previous one",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountUse,
}

func init() {
	accountCmd.AddCommand(accountUseCmd)
}

func runAccount(cmd *cobra.Command, args []string) error {
	base, err := storage.BaseDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	acct, err := storage.LoadAccount(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if acct == nil {
		fmt.Println("No account set.")
		return nil
	}
	fmt.Printf("Account: %s (since %s)\n", acct.ID, acct.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func runAccountUse(cmd *cobra.Command, args []string) error {
	id := args[0]

	e := mustEnv()
	defer e.Close()

	if active := e.ctrl.Active(); active != nil {
		fmt.Fprintf(os.Stderr, "Stop tracking %q before switching accounts.\n", active.TaskName)
		os.Exit(1)
	}

	switched, err := switchAccount(context.Background(), e.base, e.logs, id, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !switched {
		fmt.Printf("Already using account %s.\n", id)
		return nil
	}
	fmt.Printf("Switched to account %s.\n", id)
	return nil
}

type activityClearer interface {
	ClearAll(ctx context.Context) error
}

// switchAccount records id as the current account. Unless id is already the
// stored account, the activity log is cleared first and the new account is
// only recorded once clearing has finished. Activity recorded before any
// account was set is cleared too.
func switchAccount(ctx context.Context, base string, logs activityClearer, id string, now time.Time) (bool, error) {
	prev, err := storage.LoadAccount(base)
	if err != nil {
		return false, err
	}
	if prev != nil && prev.ID == id {
		return false, nil
	}

	from := ""
	if prev != nil {
		from = prev.ID
	}
	if err := logs.ClearAll(ctx); err != nil {
		return false, fmt.Errorf("clearing activity log: %w", err)
	}
	log.Info().Str("from", from).Str("to", id).Msg("Activity log cleared for account switch")

	if err := storage.SaveAccount(base, model.Account{ID: id, UpdatedAt: now}); err != nil {
		return false, err
	}
	return true, nil
}
