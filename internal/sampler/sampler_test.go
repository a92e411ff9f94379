package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	app      string
	appErr   error
	title    string
	titleErr error
	block    time.Duration
	asked    string
}

func (f *fakeProbe) Frontmost(ctx context.Context) (string, error) {
	if f.block > 0 {
		// Ignores ctx on purpose: the sampler must time out on its own.
		time.Sleep(f.block)
	}
	return f.app, f.appErr
}

func (f *fakeProbe) WindowTitle(ctx context.Context, appName string) (string, error) {
	f.asked = appName
	return f.title, f.titleErr
}

func fixedNow() time.Time { return time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC) }

func TestSampleReturnsSnapshot(t *testing.T) {
	p := &fakeProbe{app: "Safari", title: "Go docs"}
	s := New(p, time.Second)
	s.now = fixedNow

	snap := s.Sample(context.Background())
	require.NotNil(t, snap)
	assert.Equal(t, "Safari", snap.AppName)
	assert.Equal(t, "Go docs", snap.WindowTitle)
	assert.Equal(t, fixedNow(), snap.Timestamp)
	assert.Equal(t, "Safari", p.asked)
}

func TestSampleTimestampMillisecondPrecision(t *testing.T) {
	s := New(&fakeProbe{app: "Safari"}, time.Second)
	s.now = func() time.Time { return fixedNow().Add(1500 * time.Microsecond) }

	snap := s.Sample(context.Background())
	require.NotNil(t, snap)
	assert.Equal(t, fixedNow().Add(time.Millisecond), snap.Timestamp)
}

func TestSampleAppWithoutWindow(t *testing.T) {
	s := New(&fakeProbe{app: "Finder"}, time.Second)

	snap := s.Sample(context.Background())
	require.NotNil(t, snap)
	assert.Equal(t, "Finder", snap.AppName)
	assert.Equal(t, "", snap.WindowTitle)
}

func TestSampleFailuresYieldNil(t *testing.T) {
	tests := map[string]*fakeProbe{
		"frontmost error": {appErr: errors.New("boom")},
		"empty app":       {app: ""},
		"title error":     {app: "Mail", titleErr: errors.New("denied")},
	}
	for name, p := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, New(p, time.Second).Sample(context.Background()))
		})
	}
}

func TestSampleTimesOut(t *testing.T) {
	s := New(&fakeProbe{app: "Slow", block: time.Second}, 20*time.Millisecond)

	start := time.Now()
	assert.Nil(t, s.Sample(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSampleUnsupportedPlatform(t *testing.T) {
	s := New(nil, time.Second)
	assert.False(t, s.Supported())
	assert.Nil(t, s.Sample(context.Background()))
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"Code"`, appleScriptString("Code"))
	assert.Equal(t, `"say \"hi\" \\ bye"`, appleScriptString(`say "hi" \ bye`))
}

func TestOSAScriptProbeScripts(t *testing.T) {
	var scripts []string
	p := &OSAScriptProbe{run: func(ctx context.Context, script string) (string, error) {
		scripts = append(scripts, script)
		return "Terminal", nil
	}}

	app, err := p.Frontmost(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Terminal", app)
	_, err = p.WindowTitle(context.Background(), `My "App"`)
	require.NoError(t, err)

	require.Len(t, scripts, 2)
	assert.Equal(t, frontmostScript, scripts[0])
	assert.Contains(t, scripts[1], `tell process "My \"App\""`)
	assert.Contains(t, scripts[1], `if (count of windows) is 0 then return ""`)
}
