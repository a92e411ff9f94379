package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/model"
	"github.com/Tiliavir/tasktime/internal/storage"
)

type fakeCtrl struct {
	active  *model.Session
	stopErr error
	reloads int
	resumes int
}

func (c *fakeCtrl) Resume(ctx context.Context) bool {
	c.resumes++
	return c.active != nil
}

func (c *fakeCtrl) Active() *model.Session { return c.active }

func (c *fakeCtrl) Reload() error {
	c.reloads++
	return nil
}

func (c *fakeCtrl) Stop(ctx context.Context) (model.Entry, bool, error) {
	if c.stopErr != nil {
		return model.Entry{}, false, c.stopErr
	}
	if c.active == nil {
		return model.Entry{}, false, nil
	}
	s := c.active
	c.active = nil
	return model.Entry{SessionID: s.SessionID, TaskName: s.TaskName, DurationMs: 65000}, true, nil
}

type fakeCurrent struct{ res bridge.Result[*activity.Snapshot] }

func (f fakeCurrent) GetCurrent(ctx context.Context) bridge.Result[*activity.Snapshot] { return f.res }

type countPresser struct{ n int }

func (p *countPresser) Press() { p.n++ }

func newTestModel(ctrl *fakeCtrl, cur fakeCurrent, keys *countPresser) Model {
	load := func(ctx context.Context) (*Breakdown, error) {
		return &Breakdown{TaskName: "Report", Items: []activity.SummaryItem{
			{AppName: "VS Code", TotalDurationMs: 600000, TotalDurationFormatted: "10m", Percentage: 67},
			{AppName: "Chrome", TotalDurationMs: 300000, TotalDurationFormatted: "5m", Percentage: 33},
		}}, nil
	}
	m := NewModel(ctrl, cur, load, keys, time.Second)
	m.now = func() time.Time { return time.Date(2024, 1, 1, 10, 1, 5, 0, time.UTC) }
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func tracking() *model.Session {
	return &model.Session{
		SessionID: "s1",
		TaskID:    "task-1",
		TaskName:  "Report",
		StartTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestView_TrackingShowsElapsed(t *testing.T) {
	m := newTestModel(&fakeCtrl{active: tracking()}, fakeCurrent{}, &countPresser{})
	m, _ = update(t, m, currentMsg{snap: &activity.Snapshot{AppName: "Finder", WindowTitle: "Downloads"}})

	v := m.View()
	assert.Contains(t, v, "Tracking")
	assert.Contains(t, v, "Report (task-1)")
	assert.Contains(t, v, "00:01:05")
	assert.Contains(t, v, "Finder - Downloads")
}

func TestView_IdleHostMissing(t *testing.T) {
	m := newTestModel(&fakeCtrl{}, fakeCurrent{}, &countPresser{})
	m, _ = update(t, m, currentMsg{unavailable: true})
	v := m.View()
	assert.Contains(t, v, "Idle")
	assert.Contains(t, v, "host not running")
}

func TestKeyGoesThroughHotkey(t *testing.T) {
	keys := &countPresser{}
	m := newTestModel(&fakeCtrl{}, fakeCurrent{}, keys)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, keys.n)
}

func TestQuit(t *testing.T) {
	m := newTestModel(&fakeCtrl{}, fakeCurrent{}, &countPresser{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSingleTogglesBreakdown(t *testing.T) {
	m := newTestModel(&fakeCtrl{}, fakeCurrent{}, &countPresser{})

	m, cmd := update(t, m, singleMsg{})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	v := m.View()
	assert.Contains(t, v, "Last session: Report")
	assert.Contains(t, v, "VS Code")
	assert.Contains(t, v, "67%")

	m, cmd = update(t, m, singleMsg{})
	assert.Nil(t, cmd)
	assert.NotContains(t, m.View(), "Last session")
}

func TestDoubleStopsSession(t *testing.T) {
	ctrl := &fakeCtrl{active: tracking()}
	m := newTestModel(ctrl, fakeCurrent{}, &countPresser{})

	m, cmd := update(t, m, doubleMsg{})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Nil(t, m.active)
	v := m.View()
	assert.Contains(t, v, "Idle")
	assert.Contains(t, v, "Stopped Report after 00:01:05.")
}

func TestDoubleWhileIdle(t *testing.T) {
	m := newTestModel(&fakeCtrl{}, fakeCurrent{}, &countPresser{})
	m, cmd := update(t, m, doubleMsg{})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "No session is being tracked.")
}

func TestStopFailureShown(t *testing.T) {
	ctrl := &fakeCtrl{active: tracking(), stopErr: errors.New("read-only")}
	m := newTestModel(ctrl, fakeCurrent{}, &countPresser{})
	m, cmd := update(t, m, doubleMsg{})
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "Stop failed: read-only")
}

func TestReloadPicksUpSession(t *testing.T) {
	ctrl := &fakeCtrl{}
	m := newTestModel(ctrl, fakeCurrent{}, &countPresser{})
	assert.Nil(t, m.active)

	ctrl.active = tracking()
	m, cmd := update(t, m, reloadMsg{})
	assert.Equal(t, 1, ctrl.reloads)
	require.NotNil(t, m.active)
	assert.Equal(t, "s1", m.active.SessionID)

	require.NotNil(t, cmd, "an active session is handed to the host again")
	assert.Nil(t, cmd())
	assert.Equal(t, 1, ctrl.resumes)
}

func TestReloadWhileIdleDoesNotResume(t *testing.T) {
	ctrl := &fakeCtrl{}
	m := newTestModel(ctrl, fakeCurrent{}, &countPresser{})
	_, cmd := update(t, m, reloadMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, ctrl.resumes)
}

func TestProbeSchedulesNextPoll(t *testing.T) {
	snap := &activity.Snapshot{AppName: "Mail"}
	m := newTestModel(&fakeCtrl{}, fakeCurrent{res: bridge.OK(snap)}, &countPresser{})

	msg := m.probeCmd()()
	cm, ok := msg.(currentMsg)
	require.True(t, ok)
	assert.Equal(t, "Mail", cm.snap.AppName)
	assert.False(t, cm.unavailable)

	_, cmd := update(t, m, cm)
	assert.NotNil(t, cmd)
}

func TestWatchSession(t *testing.T) {
	base := t.TempDir()
	changed := make(chan struct{}, 8)
	stop, err := watchSession(base, func() { changed <- struct{}{} })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(base, "other.json"), []byte("{}"), 0o600))
	require.NoError(t, storage.SaveActiveSession(base, *tracking()))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported for the active-session record")
	}
}

func TestWatchSessionReportsHostRestart(t *testing.T) {
	base := t.TempDir()
	changed := make(chan struct{}, 8)
	stop, err := watchSession(base, func() { changed <- struct{}{} })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, bridge.WriteEndpoint(base, bridge.Endpoint{Addr: "127.0.0.1:1", Token: "t", PID: 1}))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported for the host endpoint record")
	}
}
