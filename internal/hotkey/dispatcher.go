// Package hotkey tells a single key activation from a double one.
//
// A first press arms a timer for the single callback. A second press before
// the window elapses cancels it and fires the double callback at once. The
// press after a double starts a new cycle.
package hotkey

import (
	"sync"
	"time"
)

// DefaultWindow is the double-press disambiguation window.
const DefaultWindow = 300 * time.Millisecond

// State is the dispatcher state.
type State int

const (
	Idle State = iota
	AwaitingSecond
)

// Timer is the part of *time.Timer the dispatcher uses.
type Timer interface {
	Stop() bool
}

// Dispatcher is safe for concurrent use. Callbacks run without the
// dispatcher's lock held, on the pressing goroutine (double) or the timer's
// goroutine (single).
type Dispatcher struct {
	mu       sync.Mutex
	window   time.Duration
	onSingle func()
	onDouble func()
	afterFn  func(time.Duration, func()) Timer

	state   State
	pending Timer
	gen     uint64
	closed  bool
}

// New returns a Dispatcher. Nil callbacks are ignored.
func New(window time.Duration, onSingle, onDouble func()) *Dispatcher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Dispatcher{
		window:   window,
		onSingle: onSingle,
		onDouble: onDouble,
		afterFn: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Press records one activation.
func (d *Dispatcher) Press() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	switch d.state {
	case Idle:
		d.gen++
		gen := d.gen
		d.state = AwaitingSecond
		d.pending = d.afterFn(d.window, func() { d.expire(gen) })
		d.mu.Unlock()

	case AwaitingSecond:
		d.pending.Stop()
		d.pending = nil
		d.gen++
		d.state = Idle
		d.mu.Unlock()
		if d.onDouble != nil {
			d.onDouble()
		}
	}
}

// expire fires the single callback unless the press it belongs to has been
// superseded.
func (d *Dispatcher) expire(gen uint64) {
	d.mu.Lock()
	if d.closed || d.state != AwaitingSecond || d.gen != gen {
		d.mu.Unlock()
		return
	}
	d.state = Idle
	d.pending = nil
	d.mu.Unlock()
	if d.onSingle != nil {
		d.onSingle()
	}
}

// Close cancels a pending single activation. Later presses are ignored.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.closed = true
	d.state = Idle
	d.gen++
}
