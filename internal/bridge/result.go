// Package bridge is the CLI side of the RPC boundary to the host process.
//
// Every call returns a Result envelope; no call returns an error or panics
// across the boundary. When no host process is running, calls short-circuit
// to a Result carrying ErrNotAvailable without touching the network.
package bridge

import (
	"errors"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/export"
)

// Sentinel error strings carried in Result.Error.
const (
	// ErrNotAvailable means no host process is running. Callers treat it as
	// a neutral, empty result.
	ErrNotAvailable = "Host not available"
	// ErrExportCancelled means the user dismissed the save dialog.
	ErrExportCancelled = "Export cancelled"
)

// Operation names, used as route suffixes.
const (
	OpStart      = "start"
	OpStop       = "stop"
	OpExport     = "export"
	OpGetCurrent = "current"
)

// Result is the envelope every bridge call resolves to.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps data in a successful Result.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail returns a failed Result with the given message.
func Fail[T any](msg string) Result[T] {
	return Result[T]{Error: msg}
}

// Unavailable reports whether the call failed because no host is running.
func (r Result[T]) Unavailable() bool {
	return !r.Success && r.Error == ErrNotAvailable
}

// Cancelled reports whether an export was dismissed by the user.
func (r Result[T]) Cancelled() bool {
	return !r.Success && r.Error == ErrExportCancelled
}

// Neutral reports whether a failure should be shown as a notice rather
// than as an error.
func (r Result[T]) Neutral() bool {
	return r.Unavailable() || r.Cancelled()
}

// Err returns the failure as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return errors.New("bridge call failed")
	}
	return errors.New(r.Error)
}

// Ack is the empty payload of calls that only acknowledge.
type Ack struct{}

// StartRequest asks the host to buffer samples for a session.
type StartRequest struct {
	SessionID string `json:"sessionId"`
}

// StopData is the host's flushed buffer for the session that was recording.
type StopData struct {
	EntriesRecorded int                 `json:"entriesRecorded"`
	Entries         []activity.Snapshot `json:"entries"`
}

// ExportRequest asks the host to save entries through its save dialog.
type ExportRequest struct {
	Entries  []activity.EntryWithDuration `json:"entries"`
	Format   export.Format                `json:"format"`
	TaskName string                       `json:"taskName"`
}

// ExportData is where an export was written.
type ExportData struct {
	FilePath string `json:"filePath"`
}
