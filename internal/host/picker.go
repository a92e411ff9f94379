package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/export"
	"github.com/Tiliavir/tasktime/internal/sampler"
)

// ErrExportCancelled is returned by a Picker when the user dismisses it.
var ErrExportCancelled = errors.New("export cancelled")

// Picker asks where an export should be saved.
type Picker interface {
	Choose(ctx context.Context, defaultName string) (string, error)
}

// DirPicker saves into a fixed directory without asking.
type DirPicker struct {
	Dir string
}

func (p DirPicker) Choose(ctx context.Context, defaultName string) (string, error) {
	return filepath.Join(p.Dir, defaultName), nil
}

// OSAScriptPicker shows the macOS save dialog through osascript.
type OSAScriptPicker struct {
	run func(ctx context.Context, script string) (string, error)
}

// NewOSAScriptPicker returns a picker backed by the macOS save dialog.
func NewOSAScriptPicker() OSAScriptPicker {
	return OSAScriptPicker{run: sampler.RunOSAScript}
}

// chooseFileScript builds the AppleScript for the save dialog.
func chooseFileScript(defaultName string) string {
	quoted := `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(defaultName) + `"`
	return `POSIX path of (choose file name with prompt "Export activity" default name ` + quoted + `)`
}

func (p OSAScriptPicker) Choose(ctx context.Context, defaultName string) (string, error) {
	out, err := p.run(ctx, chooseFileScript(defaultName))
	if err != nil {
		// AppleScript reports a dismissed dialog as error -128.
		if strings.Contains(err.Error(), "-128") {
			return "", ErrExportCancelled
		}
		return "", err
	}
	if out == "" {
		return "", ErrExportCancelled
	}
	return out, nil
}

// Exporter writes exports to the location a Picker chooses.
type Exporter struct {
	picker Picker
	now    func() time.Time
}

// NewExporter returns an Exporter using picker.
func NewExporter(picker Picker) *Exporter {
	return &Exporter{picker: picker, now: time.Now}
}

// Export renders entries and writes them where the user chooses. It returns
// ErrExportCancelled if the user dismissed the dialog.
func (e *Exporter) Export(ctx context.Context, entries []activity.EntryWithDuration, f export.Format, taskName string) (string, error) {
	data, err := export.Generate(entries, f)
	if err != nil {
		return "", err
	}

	path, err := e.picker.Choose(ctx, export.DefaultFilename(taskName, f, e.now()))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
