package sampler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var errNoFrontmost = errors.New("no frontmost application reported")

const frontmostScript = `tell application "System Events" to get name of first application process whose frontmost is true`

// windowTitleScript returns the AppleScript that reads the front window
// title of the named process, yielding "" when it has no window.
func windowTitleScript(appName string) string {
	return `tell application "System Events" to tell process ` + appleScriptString(appName) + `
	if (count of windows) is 0 then return ""
	return name of front window
end tell`
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// RunOSAScript executes an AppleScript through osascript and returns its
// trimmed standard output.
func RunOSAScript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("osascript: %s: %w", strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", fmt.Errorf("osascript: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// OSAScriptProbe queries System Events through osascript.
type OSAScriptProbe struct {
	run func(ctx context.Context, script string) (string, error)
}

// NewOSAScriptProbe returns a probe that shells out to osascript.
func NewOSAScriptProbe() *OSAScriptProbe {
	return &OSAScriptProbe{run: RunOSAScript}
}

func (p *OSAScriptProbe) Frontmost(ctx context.Context) (string, error) {
	return p.run(ctx, frontmostScript)
}

func (p *OSAScriptProbe) WindowTitle(ctx context.Context, appName string) (string, error) {
	return p.run(ctx, windowTitleScript(appName))
}
