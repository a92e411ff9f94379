package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/model"
	"github.com/Tiliavir/tasktime/internal/storage"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv(storage.HomeEnv, t.TempDir())
	e, err := openEnv()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestResolveSessionNone(t *testing.T) {
	e := newTestEnv(t)
	ref, err := e.resolveSession("", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if ref != nil {
		t.Errorf("ref = %+v, want nil", ref)
	}
}

func TestResolveSessionActive(t *testing.T) {
	e := newTestEnv(t)
	s, _, err := e.ctrl.Start(context.Background(), "task-1", "Review")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().Add(time.Minute)
	ref, err := e.resolveSession("", now)
	if err != nil {
		t.Fatal(err)
	}
	if ref == nil || ref.ID != s.SessionID || !ref.Active || !ref.End.Equal(now) {
		t.Errorf("ref = %+v, want active session ending now", ref)
	}
}

func TestResolveSessionLastCompleted(t *testing.T) {
	e := newTestEnv(t)
	start := time.Now().Add(-time.Hour)
	end := start.Add(30 * time.Minute)
	if err := storage.AppendEntry(e.base, model.Entry{
		ID: "s-1", SessionID: "s-1", TaskName: "Report", Start: start, End: end, DurationMs: 30 * 60000,
	}); err != nil {
		t.Fatal(err)
	}

	ref, err := e.resolveSession("", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if ref == nil || ref.ID != "s-1" || ref.TaskName != "Report" || !ref.End.Equal(end) {
		t.Errorf("ref = %+v, want completed session s-1", ref)
	}

	byID, err := e.resolveSession("s-1", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if byID.ID != "s-1" || byID.Active {
		t.Errorf("byID = %+v", byID)
	}
}

func TestSessionActivityEndsAtLastSampleWithoutJournal(t *testing.T) {
	e := newTestEnv(t)
	t0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := e.logs.Save(context.Background(), []activity.Entry{
		{ID: "a", SessionID: "orphan", AppName: "Code", Timestamp: t0},
		{ID: "b", SessionID: "orphan", AppName: "Chrome", Timestamp: t0.Add(2 * time.Minute)},
	}); err != nil {
		t.Fatal(err)
	}

	ref, err := e.resolveSession("orphan", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	entries, err := e.sessionActivity(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].DurationMs != 120000 || entries[1].DurationMs != 0 {
		t.Errorf("durations = %d, %d; want 120000, 0", entries[0].DurationMs, entries[1].DurationMs)
	}
}
