// Package host implements the host process: it samples the foreground
// window while a session is recording and serves the bridge API.
package host

import (
	"sync"

	"github.com/Tiliavir/tasktime/internal/activity"
)

// Recorder buffers snapshots in memory per session. At most one session
// records at a time.
type Recorder struct {
	mu        sync.Mutex
	recording string
	buffers   map[string][]activity.Snapshot
}

// NewRecorder returns an idle Recorder.
func NewRecorder() *Recorder {
	return &Recorder{buffers: make(map[string][]activity.Snapshot)}
}

// Start makes sessionID the recording session. Samples already buffered
// for it are kept. If another session was recording, its buffer is dropped
// and the number of discarded samples is returned.
func (r *Recorder) Start(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	if prev := r.recording; prev != "" && prev != sessionID {
		dropped = len(r.buffers[prev])
		delete(r.buffers, prev)
	}
	r.recording = sessionID
	if _, ok := r.buffers[sessionID]; !ok {
		r.buffers[sessionID] = []activity.Snapshot{}
	}
	return dropped
}

// Recording returns the id of the recording session, or "".
func (r *Recorder) Recording() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Append adds a sample to sessionID's buffer if that session is still the
// recording one. It reports whether the sample was kept.
func (r *Recorder) Append(sessionID string, snap activity.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID == "" || sessionID != r.recording {
		return false
	}
	r.buffers[sessionID] = append(r.buffers[sessionID], snap)
	return true
}

// Stop ends recording and hands back the recording session's buffer,
// which is then dropped. With nothing recording it returns "", nil.
func (r *Recorder) Stop() (string, []activity.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.recording
	if id == "" {
		return "", nil
	}
	snaps := r.buffers[id]
	delete(r.buffers, id)
	r.recording = ""
	return id, snaps
}
