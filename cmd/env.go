package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/config"
	"github.com/Tiliavir/tasktime/internal/logstore"
	"github.com/Tiliavir/tasktime/internal/session"
	"github.com/Tiliavir/tasktime/internal/storage"
)

// env holds what the UI-side commands share: the data directory, config,
// the activity log, the host bridge and the session controller.
type env struct {
	base   string
	cfg    config.Config
	logs   *logstore.Store
	bridge *bridge.Bridge
	ctrl   *session.Controller
}

func openEnv() (*env, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(base)
	if err != nil {
		return nil, err
	}
	logs, err := logstore.Open(filepath.Join(base, logstore.FileName))
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	br := bridge.New(base, logs, cfg.RequestTimeout())
	ctrl, err := session.New(storage.NewStore(base), logs, br)
	if err != nil {
		logs.Close()
		return nil, err
	}
	if br.IsHostAvailable() {
		// The host may have started, or restarted, after the session did.
		ctrl.Resume(context.Background())
	}
	return &env{base: base, cfg: cfg, logs: logs, bridge: br, ctrl: ctrl}, nil
}

// mustEnv opens the environment or exits.
func mustEnv() *env {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return e
}

func (e *env) Close() {
	e.logs.Close()
}

// sessionRef is a session resolved for display or export.
type sessionRef struct {
	ID       string
	TaskName string
	End      time.Time
	Active   bool
}

// resolveSession finds the session a log, summary or export command refers
// to. An empty id means the most recently completed session, or the active
// one if nothing has completed yet. The active session ends "now".
func (e *env) resolveSession(id string, now time.Time) (*sessionRef, error) {
	active := e.ctrl.Active()
	if active != nil && id == active.SessionID {
		return &sessionRef{ID: active.SessionID, TaskName: active.TaskName, End: now, Active: true}, nil
	}

	if id == "" {
		last, err := storage.LastEntry(e.base, now)
		if err != nil {
			return nil, err
		}
		switch {
		case last != nil:
			return &sessionRef{ID: last.SessionID, TaskName: last.TaskName, End: last.End}, nil
		case active != nil:
			return &sessionRef{ID: active.SessionID, TaskName: active.TaskName, End: now, Active: true}, nil
		}
		return nil, nil
	}

	entry, err := storage.FindSessionEntry(e.base, id, now)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return &sessionRef{ID: entry.SessionID, TaskName: entry.TaskName, End: entry.End}, nil
	}
	// Logged activity without a journal entry ends at its last sample.
	return &sessionRef{ID: id}, nil
}

// sessionActivity loads a session's activity entries with durations.
func (e *env) sessionActivity(ctx context.Context, ref *sessionRef) ([]activity.EntryWithDuration, error) {
	res := e.bridge.GetLog(ctx, ref.ID)
	if !res.Success {
		return nil, res.Err()
	}
	end := ref.End
	if end.IsZero() && len(res.Data) > 0 {
		end = res.Data[len(res.Data)-1].Timestamp
	}
	return activity.CalculateDurations(res.Data, end), nil
}
