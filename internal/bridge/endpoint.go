package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/process"
)

// EndpointFile is the name of the record the host process publishes in the
// data directory while it is running.
const EndpointFile = "host.json"

// Endpoint tells the CLI where the host process listens and how to
// authenticate against it.
type Endpoint struct {
	Addr      string    `json:"addr"`
	Token     string    `json:"token"`
	PID       int32     `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// EndpointPath returns the path of the endpoint record inside base.
func EndpointPath(base string) string {
	return filepath.Join(base, EndpointFile)
}

// WriteEndpoint publishes ep, readable by the current user only.
func WriteEndpoint(base string, ep Endpoint) error {
	if err := os.MkdirAll(base, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	data, err := json.MarshalIndent(ep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding endpoint: %w", err)
	}
	path := EndpointPath(base)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing endpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing endpoint: %w", err)
	}
	return nil
}

// ReadEndpoint loads the endpoint record. A missing record returns nil, nil.
func ReadEndpoint(base string) (*Endpoint, error) {
	data, err := os.ReadFile(EndpointPath(base))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ep Endpoint
	if err := json.Unmarshal(data, &ep); err != nil {
		return nil, fmt.Errorf("corrupt endpoint record: %w", err)
	}
	return &ep, nil
}

// RemoveEndpoint withdraws the endpoint record if it still belongs to pid.
func RemoveEndpoint(base string, pid int32) error {
	ep, err := ReadEndpoint(base)
	if err != nil || ep == nil || ep.PID != pid {
		return err
	}
	if err := os.Remove(EndpointPath(base)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// processAlive reports whether a process with the given pid exists.
func processAlive(pid int32) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(pid)
	return err == nil && ok
}
