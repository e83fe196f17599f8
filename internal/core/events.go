// Package core implements the runtime tiers of the state-machine engine: the
// state tree, the global variable store, the execution engine (driver), the
// state runner, the concurrency coordinator, the event latches and the
// observer bus.
package core

import (
	"context"
	"sync"
	"time"
)

// latch is a binary flag with a channel that is closed when the flag is set,
// so any number of goroutines can select on it without a spawned waiter
// goroutine per call. Clear() re-arms it with a fresh channel.
type latch struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

func newLatch() *latch {
	return &latch{ch: make(chan struct{})}
}

func (l *latch) Set() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.set {
		l.set = true
		close(l.ch)
	}
}

func (l *latch) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set {
		l.set = false
		l.ch = make(chan struct{})
	}
}

func (l *latch) IsSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set
}

func (l *latch) C() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ch
}

// EventLatches holds the three binary latches every state owns: preempted,
// paused, started. Composite waits and PreemptiveWait are built on top of
// them.
type EventLatches struct {
	preempted *latch
	paused    *latch
	started   *latch
}

// NewEventLatches returns a fresh, all-clear set of latches.
func NewEventLatches() *EventLatches {
	return &EventLatches{
		preempted: newLatch(),
		paused:    newLatch(),
		started:   newLatch(),
	}
}

func (e *EventLatches) IsPreempted() bool { return e.preempted.IsSet() }
func (e *EventLatches) IsPaused() bool    { return e.paused.IsSet() }
func (e *EventLatches) IsStarted() bool   { return e.started.IsSet() }

// SetPreempted sets the preempted latch. Setting preempted while paused
// also clears paused and started so any waiters relying on those latches
// unblock instead of staying parked behind a pause that will never be
// resumed.
func (e *EventLatches) SetPreempted() {
	e.preempted.Set()
	if e.paused.IsSet() {
		e.paused.Clear()
		e.started.Clear()
	}
}

func (e *EventLatches) SetPaused()   { e.paused.Set() }
func (e *EventLatches) ClearPaused() { e.paused.Clear() }
func (e *EventLatches) SetStarted()  { e.started.Set() }
func (e *EventLatches) ClearStarted() { e.started.Clear() }

// Reset clears all three latches, preparing the state for its next run.
func (e *EventLatches) Reset() {
	e.preempted.Clear()
	e.paused.Clear()
	e.started.Clear()
}

// Interrupted is preempted ∨ paused.
func (e *EventLatches) Interrupted() bool {
	return e.preempted.IsSet() || e.paused.IsSet()
}

// Unpaused is preempted ∨ started, named for the wait it satisfies: a state
// blocked waiting to resume unblocks either because it was preempted or
// because it (re)started.
func (e *EventLatches) Unpaused() bool {
	return e.preempted.IsSet() || e.started.IsSet()
}

// WaitInterrupted blocks until Interrupted() is true or ctx is done.
func (e *EventLatches) WaitInterrupted(ctx context.Context) {
	if e.Interrupted() {
		return
	}
	select {
	case <-e.preempted.C():
	case <-e.paused.C():
	case <-ctx.Done():
	}
}

// WaitUnpaused blocks until Unpaused() is true or ctx is done.
func (e *EventLatches) WaitUnpaused(ctx context.Context) {
	if e.Unpaused() {
		return
	}
	select {
	case <-e.preempted.C():
	case <-e.started.C():
	case <-ctx.Done():
	}
}

// PreemptiveWait blocks for up to d, returning true if preempted becomes set
// before the timeout elapses.
func (e *EventLatches) PreemptiveWait(d time.Duration) bool {
	if e.preempted.IsSet() {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-e.preempted.C():
		return true
	case <-timer.C:
		return e.preempted.IsSet()
	}
}
