package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/export"
)

const (
	// DefaultTimeout bounds ordinary calls.
	DefaultTimeout = 10 * time.Second
	// ExportTimeout bounds export calls, which wait for the user to pick a file.
	ExportTimeout = 5 * time.Minute
)

// LogReader is the CLI-side activity log. GetLog reads it directly because
// the host process cannot see it.
type LogReader interface {
	QueryBySession(ctx context.Context, sessionID string) ([]activity.Entry, error)
}

// Bridge is the CLI's handle on the host process.
type Bridge struct {
	base    string
	logs    LogReader
	timeout time.Duration
	alive   func(pid int32) bool
}

// New returns a Bridge that discovers the host through the endpoint record
// in base and answers GetLog from logs.
func New(base string, logs LogReader, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{base: base, logs: logs, timeout: timeout, alive: processAlive}
}

// endpoint returns the published endpoint if its process is still alive.
func (b *Bridge) endpoint() *Endpoint {
	ep, err := ReadEndpoint(b.base)
	if err != nil {
		log.Debug().Err(err).Msg("Unreadable host endpoint")
		return nil
	}
	if ep == nil || ep.Addr == "" || !b.alive(ep.PID) {
		return nil
	}
	return ep
}

// IsHostAvailable reports whether a host process is running. It does not
// contact the host.
func (b *Bridge) IsHostAvailable() bool {
	return b.endpoint() != nil
}

// Start asks the host to begin buffering samples for sessionID.
func (b *Bridge) Start(ctx context.Context, sessionID string) Result[Ack] {
	return call[Ack](ctx, b, http.MethodPost, OpStart, StartRequest{SessionID: sessionID}, b.timeout)
}

// Stop asks the host for the recording session's samples and clears its buffer.
func (b *Bridge) Stop(ctx context.Context) Result[StopData] {
	res := call[StopData](ctx, b, http.MethodPost, OpStop, struct{}{}, b.timeout)
	if res.Success && res.Data.Entries == nil {
		res.Data.Entries = []activity.Snapshot{}
	}
	return res
}

// GetCurrent takes a single sample, independent of any session.
func (b *Bridge) GetCurrent(ctx context.Context) Result[*activity.Snapshot] {
	return call[*activity.Snapshot](ctx, b, http.MethodGet, OpGetCurrent, nil, b.timeout)
}

// Export hands entries to the host, which asks the user where to save them.
func (b *Bridge) Export(ctx context.Context, entries []activity.EntryWithDuration, f export.Format, taskName string) Result[ExportData] {
	req := ExportRequest{Entries: entries, Format: f, TaskName: taskName}
	return call[ExportData](ctx, b, http.MethodPost, OpExport, req, ExportTimeout)
}

// GetLog returns a session's logged entries from the local activity log.
// Unknown sessions yield an empty list.
func (b *Bridge) GetLog(ctx context.Context, sessionID string) Result[[]activity.Entry] {
	if b.logs == nil {
		return Fail[[]activity.Entry]("activity log not open")
	}
	entries, err := b.logs.QueryBySession(ctx, sessionID)
	if err != nil {
		return Fail[[]activity.Entry](err.Error())
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return OK(entries)
}

func call[T any](ctx context.Context, b *Bridge, method, op string, body any, timeout time.Duration) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail[T](fmt.Sprintf("bridge %s: %v", op, r))
		}
	}()

	ep := b.endpoint()
	if ep == nil {
		return Fail[T](ErrNotAvailable)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Fail[T](fmt.Sprintf("encoding %s request: %v", op, err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://"+ep.Addr+"/bridge/"+op, reader)
	if err != nil {
		return Fail[T](fmt.Sprintf("creating %s request: %v", op, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: ep.Token,
		TokenType:   "Bearer",
	}))
	resp, err := client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return Fail[T](ErrNotAvailable)
		}
		return Fail[T](fmt.Sprintf("bridge %s: %v", op, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fail[T](fmt.Sprintf("reading %s response: %v", op, err))
	}
	if resp.StatusCode != http.StatusOK {
		return Fail[T](fmt.Sprintf("host error %d: %s", resp.StatusCode, bytes.TrimSpace(data)))
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return Fail[T](fmt.Sprintf("decoding %s response: %v", op, err))
	}
	return res
}
