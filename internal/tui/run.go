package tui

import (
	"context"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/Tiliavir/tasktime/internal/bridge"
	"github.com/Tiliavir/tasktime/internal/hotkey"
	"github.com/Tiliavir/tasktime/internal/storage"
)

// Options configures Run.
type Options struct {
	Base         string
	Controller   Controller
	Current      CurrentSource
	Breakdown    BreakdownLoader
	Poll         time.Duration
	DoubleWindow time.Duration
}

// Run shows the dashboard until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	var p *tea.Program
	keys := hotkey.New(opts.DoubleWindow,
		func() { p.Send(singleMsg{}) },
		func() { p.Send(doubleMsg{}) },
	)
	defer keys.Close()

	m := NewModel(opts.Controller, opts.Current, opts.Breakdown, keys, opts.Poll)
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	stop, err := watchSession(opts.Base, func() { p.Send(reloadMsg{}) })
	if err != nil {
		log.Warn().Err(err).Str("path", opts.Base).Msg("Not watching for session changes")
	} else {
		defer stop()
	}

	_, err = p.Run()
	return err
}

// watchSession calls onChange whenever the active-session record or the
// host endpoint record is written or removed. fsnotify cannot watch a
// missing file, so the data directory is watched instead.
func watchSession(base string, onChange func()) (func(), error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(base); err != nil {
		fsw.Close()
		return nil, err
	}

	targets := map[string]bool{
		filepath.Clean(storage.ActiveSessionPath(base)): true,
		filepath.Clean(bridge.EndpointPath(base)):       true,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !targets[filepath.Clean(ev.Name)] {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					onChange()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Debug().Err(err).Msg("Watcher error")
			}
		}
	}()

	return func() {
		fsw.Close()
		<-done
	}, nil
}
