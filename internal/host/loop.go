package host

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tiliavir/tasktime/internal/activity"
)

// SnapshotSource takes one foreground-window sample, or returns nil.
type SnapshotSource interface {
	Sample(ctx context.Context) *activity.Snapshot
}

// RunSampling samples on a fixed interval while a session is recording,
// until ctx is done. Ticks never overlap: a slow sample delays the next
// tick instead of running concurrently with it.
func RunSampling(ctx context.Context, src SnapshotSource, rec *Recorder, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		sessionID := rec.Recording()
		if sessionID == "" {
			continue
		}
		snap := src.Sample(ctx)
		if snap == nil {
			continue
		}
		if rec.Append(sessionID, *snap) {
			log.Debug().
				Str("session", sessionID).
				Str("app", snap.AppName).
				Msg("Activity sampled")
		}
	}
}
