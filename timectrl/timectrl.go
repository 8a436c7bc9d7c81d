// Package timectrl owns the tick source that paces an alignment session.
// Estimators never keep timers of their own; hosts register a listener
// here and decay on each tick.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock reads session time. Sessions depend on this rather than on the
// controller so tests can pin time.
type Clock interface {
	Now() time.Time
}

// Mode describes how the TimeController advances session time.
type Mode int

const (
	// RealTime waits one wall-clock Tick between steps.
	RealTime Mode = iota
	// Accelerated steps as fast as listeners return.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// ModeFor picks Accelerated when accelerated is set.
func ModeFor(accelerated bool) Mode {
	if accelerated {
		return Accelerated
	}
	return RealTime
}

// Listener is called with the tick index (starting at 1) and the session
// time after that tick.
type Listener func(tick int, now time.Time)

// TimeController drives session time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	ticks       int

	listeners []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current session time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Ticks returns how many ticks have elapsed.
func (tc *TimeController) Ticks() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.ticks
}

// SetTime jumps session time without firing listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}

// AddListener registers a callback invoked on every tick, in registration
// order.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Step advances one tick synchronously and notifies listeners.
func (tc *TimeController) Step() time.Time {
	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(tc.Tick)
	tc.ticks++
	now, n := tc.currentTime, tc.ticks
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(n, now)
	}
	return now
}

// Run steps until maxTicks have elapsed (0 means unbounded) or ctx is
// cancelled. It returns a channel closed when the loop exits.
func (tc *TimeController) Run(ctx context.Context, maxTicks int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var wait <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Tick)
			defer ticker.Stop()
			wait = ticker.C
		}

		for i := 0; maxTicks <= 0 || i < maxTicks; i++ {
			if ctx.Err() != nil {
				return
			}
			if wait != nil {
				select {
				case <-ctx.Done():
					return
				case <-wait:
				}
			}
			tc.Step()
		}
	}()
	return done
}
