// Package sampler reports which application and window have focus.
//
// Sampling is best-effort: every failure (unsupported platform, OS query
// error, timeout) is reported as a nil snapshot, never as an error.
package sampler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tiliavir/tasktime/internal/activity"
)

// DefaultTimeout bounds a single probe query.
const DefaultTimeout = 2 * time.Second

// Probe queries the operating system for the foreground application.
// One implementation exists per supported platform.
type Probe interface {
	// Frontmost returns the name of the frontmost application process.
	Frontmost(ctx context.Context) (string, error)
	// WindowTitle returns the title of appName's front window, or "" when
	// the application has no open window.
	WindowTitle(ctx context.Context, appName string) (string, error)
}

// Sampler turns probe queries into snapshots under a hard timeout.
type Sampler struct {
	probe   Probe
	timeout time.Duration
	now     func() time.Time
}

// New returns a Sampler using probe. A nil probe means the platform is
// unsupported and every sample is nil.
func New(probe Probe, timeout time.Duration) *Sampler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sampler{probe: probe, timeout: timeout, now: time.Now}
}

// Supported reports whether the sampler has a probe for this platform.
func (s *Sampler) Supported() bool {
	return s.probe != nil
}

type result struct {
	snap *activity.Snapshot
	err  error
}

// Sample returns the current foreground application and window, or nil.
// It returns within the configured timeout even if the probe does not
// honour its context.
func (s *Sampler) Sample(ctx context.Context) *activity.Snapshot {
	if s.probe == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		snap, err := s.query(ctx)
		done <- result{snap: snap, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			log.Debug().Err(r.err).Msg("Activity sample failed")
			return nil
		}
		return r.snap
	case <-ctx.Done():
		log.Debug().Dur("timeout", s.timeout).Msg("Activity sample timed out")
		return nil
	}
}

func (s *Sampler) query(ctx context.Context) (*activity.Snapshot, error) {
	app, err := s.probe.Frontmost(ctx)
	if err != nil {
		return nil, err
	}
	if app == "" {
		return nil, errNoFrontmost
	}
	title, err := s.probe.WindowTitle(ctx, app)
	if err != nil {
		return nil, err
	}
	return &activity.Snapshot{
		AppName:     app,
		WindowTitle: title,
		Timestamp:   s.now().UTC().Truncate(time.Millisecond),
	}, nil
}
