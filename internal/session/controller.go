// Package session implements the state machine for the one tracked session
// a user may have at a time.
//
// The active-session record on disk is the source of truth: Start writes it
// before reporting success, and a new Controller resumes from it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/model"
)

// State is the controller state.
type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// Store persists the active-session record and completed entries.
type Store interface {
	LoadActive() (*model.Session, error)
	SaveActive(s model.Session) error
	ClearActive() error
	AppendCompleted(e model.Entry) error
}

// ActivityLog receives the activity entries of a stopped session.
type ActivityLog interface {
	Save(ctx context.Context, entries []activity.Entry) error
}

// Bridge is the subset of the host bridge the controller drives.
type Bridge interface {
	Start(ctx context.Context, sessionID string) bridge.Result[bridge.Ack]
	Stop(ctx context.Context) bridge.Result[bridge.StopData]
}

// Controller starts and stops sessions. Calls on one Controller are
// serialized; separate processes are not coordinated.
type Controller struct {
	mu     sync.Mutex
	store  Store
	logs   ActivityLog
	bridge Bridge
	now    func() time.Time
	newID  func() string
	active *model.Session
}

// New returns a Controller resumed from the persisted active-session
// record, if any.
func New(store Store, logs ActivityLog, br Bridge) (*Controller, error) {
	c := &Controller{
		store:  store,
		logs:   logs,
		bridge: br,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the active-session record, picking up sessions started or
// stopped by another process.
func (c *Controller) Reload() error {
	s, err := c.store.LoadActive()
	if err != nil {
		return fmt.Errorf("loading active session: %w", err)
	}
	c.mu.Lock()
	c.active = s
	c.mu.Unlock()
	return nil
}

// Resume asks the host to record the active session again. A session
// resumed from disk, or one that outlived a host restart, is otherwise never
// sampled. The host keeps samples it already buffered for the session. Resume
// reports whether the host accepted the session.
func (c *Controller) Resume(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return false
	}
	res := c.bridge.Start(ctx, c.active.SessionID)
	if !res.Success {
		logBridgeFailure(res.Error, c.active.SessionID, "resume")
		return false
	}
	return true
}

// State returns Tracking while a session is active.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return Tracking
	}
	return Idle
}

// Active returns a copy of the active session, or nil when idle.
func (c *Controller) Active() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	s := *c.active
	return &s
}

// Elapsed returns the running time of the active session, or 0 when idle.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0
	}
	return c.active.Elapsed(c.now())
}

// Start begins tracking taskID. The active-session record is durable before
// Start returns; if writing it fails, Start fails and the controller stays
// idle. When a session is already active Start returns it with started set
// to false.
func (c *Controller) Start(ctx context.Context, taskID, taskName string) (s model.Session, started bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return *c.active, false, nil
	}

	s = model.Session{
		SessionID: c.newID(),
		TaskID:    taskID,
		TaskName:  taskName,
		StartTime: c.now().Truncate(time.Millisecond),
	}
	if err := c.store.SaveActive(s); err != nil {
		return model.Session{}, false, fmt.Errorf("persisting active session: %w", err)
	}
	c.active = &s

	if res := c.bridge.Start(ctx, s.SessionID); !res.Success {
		logBridgeFailure(res.Error, s.SessionID, "start")
	}
	return s, true, nil
}

// Stop ends the active session and returns its completed entry. Samples
// buffered by the host are written to the activity log; failures there are
// logged and do not fail Stop. When idle Stop returns stopped set to false.
//
// The completed entry is keyed by session id, so a Stop retried after a
// failed clear replaces it instead of adding a second one.
func (c *Controller) Stop(ctx context.Context) (e model.Entry, stopped bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return model.Entry{}, false, nil
	}
	s := *c.active

	var entries []activity.Entry
	res := c.bridge.Stop(ctx)
	if res.Success {
		entries = activity.EntriesFromSnapshots(s.SessionID, res.Data.Entries, c.newID)
	} else {
		logBridgeFailure(res.Error, s.SessionID, "stop")
	}

	if len(entries) > 0 {
		if err := c.logs.Save(ctx, entries); err != nil {
			log.Warn().Err(err).
				Str("session", s.SessionID).
				Int("entries", len(entries)).
				Msg("Failed to persist activity entries")
		}
	}

	end := c.now().Truncate(time.Millisecond)
	if end.Before(s.StartTime) {
		end = s.StartTime
	}
	e = model.Entry{
		ID:              s.SessionID,
		SessionID:       s.SessionID,
		TaskID:          s.TaskID,
		TaskName:        s.TaskName,
		Start:           s.StartTime,
		End:             end,
		DurationMs:      end.Sub(s.StartTime).Milliseconds(),
		ActivityEntries: len(entries),
	}
	if err := c.store.AppendCompleted(e); err != nil {
		log.Warn().Err(err).Str("session", s.SessionID).Msg("Failed to record completed entry")
	}

	if err := c.store.ClearActive(); err != nil {
		return e, false, fmt.Errorf("clearing active session: %w", err)
	}
	c.active = nil
	return e, true, nil
}

func logBridgeFailure(msg, sessionID, op string) {
	if msg == bridge.ErrNotAvailable {
		log.Debug().Str("session", sessionID).Msgf("Host not running, %s not recorded", op)
		return
	}
	log.Warn().Str("session", sessionID).Str("error", msg).Msgf("Host %s failed", op)
}
