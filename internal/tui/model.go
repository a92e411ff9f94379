// Package tui implements the live tracking dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/model"
	"github.com/Tiliavir/tasktime/internal/timecalc"
)

// Controller is the session state the dashboard shows and drives.
type Controller interface {
	Active() *model.Session
	Reload() error
	Resume(ctx context.Context) bool
	Stop(ctx context.Context) (model.Entry, bool, error)
}

// CurrentSource probes the foreground activity.
type CurrentSource interface {
	GetCurrent(ctx context.Context) bridge.Result[*activity.Snapshot]
}

// Breakdown is the per-app summary of one completed session.
type Breakdown struct {
	TaskName string
	Items    []activity.SummaryItem
}

// BreakdownLoader returns the breakdown of the last completed session, or
// nil if there is none.
type BreakdownLoader func(ctx context.Context) (*Breakdown, error)

// Presser receives hotkey activations.
type Presser interface {
	Press()
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Padding(0, 1).
			MarginBottom(1)

	trackingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 2).
			MarginBottom(1)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

type (
	tickMsg    time.Time
	pollMsg    time.Time
	singleMsg  struct{}
	doubleMsg  struct{}
	reloadMsg  struct{}
	currentMsg struct {
		snap        *activity.Snapshot
		unavailable bool
	}
	stoppedMsg struct {
		entry   model.Entry
		stopped bool
		err     error
	}
	breakdownMsg struct {
		b   *Breakdown
		err error
	}
)

// Model is the dashboard state.
type Model struct {
	ctrl      Controller
	current   CurrentSource
	breakdown BreakdownLoader
	hotkey    Presser
	poll      time.Duration
	now       func() time.Time

	active      *model.Session
	snap        *activity.Snapshot
	hostMissing bool
	showPanel   bool
	panel       *Breakdown
	notice      string
	width       int
}

// NewModel returns a dashboard over ctrl. poll is how often the current
// activity is probed.
func NewModel(ctrl Controller, current CurrentSource, breakdown BreakdownLoader, hotkey Presser, poll time.Duration) Model {
	return Model{
		ctrl:      ctrl,
		current:   current,
		breakdown: breakdown,
		hotkey:    hotkey,
		poll:      poll,
		now:       time.Now,
		active:    ctrl.Active(),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(m.poll, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (m Model) probeCmd() tea.Cmd {
	src := m.current
	return func() tea.Msg {
		res := src.GetCurrent(context.Background())
		return currentMsg{snap: res.Data, unavailable: res.Unavailable()}
	}
}

func (m Model) stopCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		e, stopped, err := ctrl.Stop(context.Background())
		return stoppedMsg{entry: e, stopped: stopped, err: err}
	}
}

func (m Model) resumeCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Resume(context.Background())
		return nil
	}
}

func (m Model) breakdownCmd() tea.Cmd {
	load := m.breakdown
	return func() tea.Msg {
		b, err := load(context.Background())
		return breakdownMsg{b: b, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.probeCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "t":
			m.hotkey.Press()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tickCmd()
	case pollMsg:
		return m, m.probeCmd()
	case currentMsg:
		m.snap = msg.snap
		m.hostMissing = msg.unavailable
		return m, m.pollCmd()
	case reloadMsg:
		if err := m.ctrl.Reload(); err != nil {
			m.notice = err.Error()
		}
		m.active = m.ctrl.Active()
		if m.active != nil {
			return m, m.resumeCmd()
		}
	case singleMsg:
		m.showPanel = !m.showPanel
		if m.showPanel {
			return m, m.breakdownCmd()
		}
	case doubleMsg:
		if m.active == nil {
			m.notice = "No session is being tracked."
			return m, nil
		}
		return m, m.stopCmd()
	case stoppedMsg:
		m.active = m.ctrl.Active()
		switch {
		case msg.err != nil:
			m.notice = "Stop failed: " + msg.err.Error()
		case msg.stopped:
			m.notice = fmt.Sprintf("Stopped %s after %s.", msg.entry.TaskName,
				timecalc.FormatClock(time.Duration(msg.entry.DurationMs)*time.Millisecond))
			if m.showPanel {
				return m, m.breakdownCmd()
			}
		}
	case breakdownMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		m.panel = msg.b
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	header := "tasktime"
	if m.width > 0 {
		b.WriteString(headerStyle.Width(m.width).Render(header))
	} else {
		b.WriteString(headerStyle.Render(header))
	}
	b.WriteString("\n")

	var status strings.Builder
	if m.active != nil {
		status.WriteString(trackingStyle.Render("● Tracking"))
		fmt.Fprintf(&status, "\nTask:    %s (%s)", m.active.TaskName, m.active.TaskID)
		fmt.Fprintf(&status, "\nElapsed: %s", timecalc.FormatClock(m.active.Elapsed(m.now())))
	} else {
		status.WriteString(idleStyle.Render("○ Idle"))
	}
	switch {
	case m.hostMissing:
		status.WriteString("\nNow:     " + dimStyle.Render("host not running"))
	case m.snap != nil:
		fmt.Fprintf(&status, "\nNow:     %s", m.snap.AppName)
		if m.snap.WindowTitle != "" {
			fmt.Fprintf(&status, " - %s", m.snap.WindowTitle)
		}
	default:
		status.WriteString("\nNow:     " + dimStyle.Render("unknown"))
	}
	b.WriteString(boxStyle.Render(status.String()))
	b.WriteString("\n")

	if m.showPanel {
		b.WriteString(boxStyle.Render(m.panelView()))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(m.notice + "\n")
	}
	b.WriteString(dimStyle.Render("t: breakdown  t t: stop  q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) panelView() string {
	if m.panel == nil {
		return "No completed session yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last session: %s", m.panel.TaskName)
	if len(m.panel.Items) == 0 {
		b.WriteString("\nNo activity recorded.")
		return b.String()
	}
	for _, it := range m.panel.Items {
		fmt.Fprintf(&b, "\n%-24s %10s %4d%%", it.AppName, it.TotalDurationFormatted, it.Percentage)
	}
	return b.String()
}
