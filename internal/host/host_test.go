package host

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/tasktime/internal/activity"
	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/export"
)

type fixedSource struct {
	mu    sync.Mutex
	snap  *activity.Snapshot
	calls int
}

func (f *fixedSource) Sample(ctx context.Context) *activity.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.snap == nil {
		return nil
	}
	s := *f.snap
	return &s
}

func (f *fixedSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type cancelPicker struct{}

func (cancelPicker) Choose(ctx context.Context, defaultName string) (string, error) {
	return "", ErrExportCancelled
}

func snapshot(app string) activity.Snapshot {
	return activity.Snapshot{
		AppName:     app,
		WindowTitle: app + " window",
		Timestamp:   time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecorder_StartAppendStop(t *testing.T) {
	rec := NewRecorder()
	assert.Equal(t, "", rec.Recording())
	assert.False(t, rec.Append("s1", snapshot("Code")), "nothing recording")

	rec.Start("s1")
	assert.Equal(t, "s1", rec.Recording())
	assert.True(t, rec.Append("s1", snapshot("Code")))
	assert.True(t, rec.Append("s1", snapshot("Chrome")))
	assert.False(t, rec.Append("other", snapshot("Mail")))

	id, snaps := rec.Stop()
	assert.Equal(t, "s1", id)
	require.Len(t, snaps, 2)
	assert.Equal(t, "Code", snaps[0].AppName)
	assert.Equal(t, "Chrome", snaps[1].AppName)

	id, snaps = rec.Stop()
	assert.Equal(t, "", id)
	assert.Nil(t, snaps)
}

func TestRecorder_RestartSameSessionKeepsBuffer(t *testing.T) {
	rec := NewRecorder()
	rec.Start("s1")
	rec.Append("s1", snapshot("Code"))
	assert.Equal(t, 0, rec.Start("s1"))

	_, snaps := rec.Stop()
	assert.Len(t, snaps, 1)
}

func TestRecorder_StartWithoutSamples(t *testing.T) {
	rec := NewRecorder()
	rec.Start("s1")
	id, snaps := rec.Stop()
	assert.Equal(t, "s1", id)
	assert.NotNil(t, snaps)
	assert.Empty(t, snaps)
}

func TestRecorder_SwitchSession(t *testing.T) {
	rec := NewRecorder()
	assert.Equal(t, 0, rec.Start("s1"))
	rec.Append("s1", snapshot("Code"))
	assert.Equal(t, 1, rec.Start("s2"))
	assert.NotContains(t, rec.buffers, "s1", "replaced session's buffer must be released")
	assert.Len(t, rec.buffers, 1)
	assert.False(t, rec.Append("s1", snapshot("Code")))
	assert.True(t, rec.Append("s2", snapshot("Chrome")))

	id, snaps := rec.Stop()
	assert.Equal(t, "s2", id)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Chrome", snaps[0].AppName)
}

func TestRunSampling_OnlyWhileRecording(t *testing.T) {
	snap := snapshot("Code")
	src := &fixedSource{snap: &snap}
	rec := NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunSampling(ctx, src, rec, 5*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, src.Calls(), "idle recorder must not sample")

	rec.Start("s1")
	require.Eventually(t, func() bool { return src.Calls() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sampling loop did not stop")
	}

	_, snaps := rec.Stop()
	assert.GreaterOrEqual(t, len(snaps), 2)
	for _, s := range snaps {
		assert.Equal(t, "Code", s.AppName)
	}
}

func TestRunSampling_SkipsNilSamples(t *testing.T) {
	src := &fixedSource{}
	rec := NewRecorder()
	rec.Start("s1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunSampling(ctx, src, rec, 5*time.Millisecond) }()
	require.Eventually(t, func() bool { return src.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	_, snaps := rec.Stop()
	assert.Empty(t, snaps)
}

func TestExporter_WritesChosenFile(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(DirPicker{Dir: filepath.Join(dir, "exports")})
	exp.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local) }

	entries := []activity.EntryWithDuration{{
		Entry:             activity.Entry{ID: "1", SessionID: "s1", AppName: "Code", WindowTitle: "main.go", Timestamp: snapshot("Code").Timestamp},
		DurationMs:        60000,
		DurationFormatted: "1m 0s",
	}}
	path, err := exp.Export(context.Background(), entries, export.FormatCSV, "Write report")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "activity-Write report-2024-03-05.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), export.CSVHeader))
}

func TestExporter_Cancelled(t *testing.T) {
	exp := NewExporter(cancelPicker{})
	_, err := exp.Export(context.Background(), nil, export.FormatJSON, "x")
	assert.ErrorIs(t, err, ErrExportCancelled)
}

func TestOSAScriptPicker(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    string
		wantErr error
	}{
		{"chosen", "/Users/me/a.csv", nil, "/Users/me/a.csv", nil},
		{"script error", "", assert.AnError, "", nil},
		{"empty output", "", nil, "", ErrExportCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var script string
			p := OSAScriptPicker{run: func(ctx context.Context, s string) (string, error) {
				script = s
				return tt.out, tt.err
			}}
			got, err := p.Choose(context.Background(), `a"b.csv`)
			assert.Contains(t, script, `default name "a\"b.csv"`)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.err != nil:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}

	p := OSAScriptPicker{run: func(ctx context.Context, s string) (string, error) {
		return "", &scriptError{"execution error: User canceled. (-128)"}
	}}
	_, err := p.Choose(context.Background(), "a.csv")
	assert.ErrorIs(t, err, ErrExportCancelled)
}

type scriptError struct{ msg string }

func (e *scriptError) Error() string { return e.msg }

func newTestServer(t *testing.T, src SnapshotSource, picker Picker) (*Recorder, *httptest.Server) {
	t.Helper()
	rec := NewRecorder()
	srv := NewServer(rec, src, NewExporter(picker), "secret")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return rec, ts
}

func post(t *testing.T, ts *httptest.Server, path, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResult[T any](t *testing.T, resp *http.Response) bridge.Result[T] {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res bridge.Result[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestServer_RejectsBadToken(t *testing.T) {
	_, ts := newTestServer(t, &fixedSource{}, DirPicker{Dir: t.TempDir()})

	resp := post(t, ts, "/bridge/start", "", bridge.StartRequest{SessionID: "s1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, ts, "/bridge/start", "wrong", bridge.StartRequest{SessionID: "s1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Healthz(t *testing.T) {
	_, ts := newTestServer(t, &fixedSource{}, DirPicker{Dir: t.TempDir()})
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_StartStop(t *testing.T) {
	rec, ts := newTestServer(t, &fixedSource{}, DirPicker{Dir: t.TempDir()})

	res := decodeResult[bridge.Ack](t, post(t, ts, "/bridge/start", "secret", bridge.StartRequest{SessionID: "s1"}))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "s1", rec.Recording())

	rec.Append("s1", snapshot("Code"))
	rec.Append("s1", snapshot("Chrome"))

	stop := decodeResult[bridge.StopData](t, post(t, ts, "/bridge/stop", "secret", struct{}{}))
	require.True(t, stop.Success, stop.Error)
	assert.Equal(t, 2, stop.Data.EntriesRecorded)
	require.Len(t, stop.Data.Entries, 2)
	assert.Equal(t, "Code", stop.Data.Entries[0].AppName)
	assert.Equal(t, "", rec.Recording())

	again := decodeResult[bridge.StopData](t, post(t, ts, "/bridge/stop", "secret", struct{}{}))
	require.True(t, again.Success)
	assert.Equal(t, 0, again.Data.EntriesRecorded)
	assert.NotNil(t, again.Data.Entries)
}

func TestServer_StartRequiresSessionID(t *testing.T) {
	_, ts := newTestServer(t, &fixedSource{}, DirPicker{Dir: t.TempDir()})
	res := decodeResult[bridge.Ack](t, post(t, ts, "/bridge/start", "secret", bridge.StartRequest{}))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestServer_Current(t *testing.T) {
	snap := snapshot("Finder")
	_, ts := newTestServer(t, &fixedSource{snap: &snap}, DirPicker{Dir: t.TempDir()})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/bridge/current", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	res := decodeResult[*activity.Snapshot](t, resp)
	require.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Equal(t, "Finder", res.Data.AppName)
}

func TestServer_Export(t *testing.T) {
	dir := t.TempDir()
	_, ts := newTestServer(t, &fixedSource{}, DirPicker{Dir: dir})

	res := decodeResult[bridge.ExportData](t, post(t, ts, "/bridge/export", "secret", bridge.ExportRequest{
		Entries:  []activity.EntryWithDuration{},
		Format:   export.FormatJSON,
		TaskName: "Report",
	}))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, dir, filepath.Dir(res.Data.FilePath))

	data, err := os.ReadFile(res.Data.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestServer_ExportCancelled(t *testing.T) {
	_, ts := newTestServer(t, &fixedSource{}, cancelPicker{})
	res := decodeResult[bridge.ExportData](t, post(t, ts, "/bridge/export", "secret", bridge.ExportRequest{Format: export.FormatCSV}))
	assert.True(t, res.Cancelled())
}

func TestServer_ExportUnknownFormat(t *testing.T) {
	_, ts := newTestServer(t, &fixedSource{}, DirPicker{Dir: t.TempDir()})
	res := decodeResult[bridge.ExportData](t, post(t, ts, "/bridge/export", "secret", bridge.ExportRequest{Format: "xml"}))
	assert.False(t, res.Success)
	assert.False(t, res.Cancelled())
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
