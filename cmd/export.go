package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a session's activity as JSON or CSV",
	Long: `Export a session's activity. Without --out the host process asks where
to save the file; when the host is not running the file is written to the
current directory. Use --out - to write to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write to this path instead of asking (- for stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := export.ParseFormat(exportFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	e := mustEnv()
	defer e.Close()

	ref, entries := loadSessionActivity(e, args)

	if exportOut == "" {
		res := e.bridge.Export(context.Background(), entries, f, ref.TaskName)
		done, err := reportHostExport(os.Stdout, res, len(entries))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		if done {
			return nil
		}
		exportOut = export.DefaultFilename(ref.TaskName, f, time.Now())
	}

	data, err := export.Generate(entries, f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if exportOut == "-" {
		fmt.Println(string(data))
		return nil
	}
	if dir := filepath.Dir(exportOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Printf("Exported %d entries to %s\n", len(entries), exportOut)
	return nil
}

// reportHostExport prints the outcome of an export through the host. It
// returns done=false when the host is not running and the caller should
// write the file itself. Cancellation is not an error.
func reportHostExport(w io.Writer, res bridge.Result[bridge.ExportData], n int) (done bool, err error) {
	switch {
	case res.Success:
		fmt.Fprintf(w, "Exported %d entries to %s\n", n, res.Data.FilePath)
		return true, nil
	case !res.Neutral():
		return true, res.Err()
	case res.Cancelled():
		fmt.Fprintln(w, "Export cancelled.")
		return true, nil
	}
	return false, nil
}
