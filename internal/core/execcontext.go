package core

import (
	"context"
	"sync/atomic"
)

// ExecutionContext carries the run-wide concerns threaded through one
// Start()..Stop() activation of a machine: the run id stamped on every
// state entered during it, the observer bus, the optional history recorder,
// and the activation's context.Context, which Engine.Stop cancels and which
// the runner's pause and step waits also watch alongside the latches.
//
// It also carries the single-step gate consulted by the hierarchical
// runner's sequential loop: depth tracks how deep the currently-running
// chain is, and stepDepthLimit/stepEnabled implement forward_into (always
// pause), forward_over (pause at this container's own children only) and
// forward_out (don't pause until control returns to the parent's level).
// Stepping only constrains runHierarchy's sequential loop; barrier and
// preemptive children run unconstrained by it since concurrent branches
// have no single well-ordered "next step".
type ExecutionContext struct {
	Ctx     context.Context
	RunID   string
	Bus     *Bus
	History *HistoryRecorder
	GVM     *GlobalVariableStore

	depth          int32
	stepEnabled    int32
	stepDepthLimit int32
	stepAdvance    chan struct{}
}

// NewExecutionContext builds the per-run context for a fresh activation.
func NewExecutionContext(ctx context.Context, runID string, bus *Bus, history *HistoryRecorder, gvm *GlobalVariableStore) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ExecutionContext{
		Ctx:         ctx,
		RunID:       runID,
		Bus:         bus,
		History:     history,
		GVM:         gvm,
		stepAdvance: make(chan struct{}, 1),
	}
}

// emit is a convenience wrapper that no-ops when Bus is nil, used throughout
// the runner and engine so tests can construct an ExecutionContext without
// wiring observers.
func (ec *ExecutionContext) emit(c Change) {
	if ec == nil || ec.Bus == nil {
		return
	}
	ec.Bus.Emit(c)
}

func (ec *ExecutionContext) enterDepth() int32 { return atomic.AddInt32(&ec.depth, 1) }
func (ec *ExecutionContext) exitDepth()         { atomic.AddInt32(&ec.depth, -1) }
func (ec *ExecutionContext) currentDepth() int32 { return atomic.LoadInt32(&ec.depth) }

func (ec *ExecutionContext) signalAdvance() {
	select {
	case ec.stepAdvance <- struct{}{}:
	default:
	}
}

// EnableStepMode switches the hierarchical runner into single-step mode,
// pausing before every child dispatch until an Advance* call releases it.
func (ec *ExecutionContext) EnableStepMode() {
	atomic.StoreInt32(&ec.stepDepthLimit, -1)
	atomic.StoreInt32(&ec.stepEnabled, 1)
}

// DisableStepMode returns to free-running execution.
func (ec *ExecutionContext) DisableStepMode() {
	atomic.StoreInt32(&ec.stepEnabled, 0)
	ec.signalAdvance()
}

func (ec *ExecutionContext) IsStepMode() bool {
	return atomic.LoadInt32(&ec.stepEnabled) == 1
}

// AdvanceInto releases exactly one pending or next pause, and leaves the
// gate set to pause again at the very next child dispatch, however deep.
func (ec *ExecutionContext) AdvanceInto() {
	atomic.StoreInt32(&ec.stepDepthLimit, -1)
	ec.signalAdvance()
}

// AdvanceOver releases the pending pause and re-arms the gate to skip
// pausing inside whatever child is about to run, next pausing at this same
// container's following sibling.
func (ec *ExecutionContext) AdvanceOver() {
	atomic.StoreInt32(&ec.stepDepthLimit, ec.currentDepth())
	ec.signalAdvance()
}

// AdvanceOut releases the pending pause and re-arms the gate to run the
// current container to completion, next pausing only once control returns
// to its parent's loop.
func (ec *ExecutionContext) AdvanceOut() {
	limit := ec.currentDepth() - 1
	if limit < 0 {
		limit = 0
	}
	atomic.StoreInt32(&ec.stepDepthLimit, limit)
	ec.signalAdvance()
}

// waitStep blocks before a child at childDepth runs, if step mode is
// enabled and childDepth is within the current pause boundary.
func (ec *ExecutionContext) waitStep(ctx context.Context, childDepth int32) {
	if atomic.LoadInt32(&ec.stepEnabled) == 0 {
		return
	}
	limit := atomic.LoadInt32(&ec.stepDepthLimit)
	if limit >= 0 && childDepth > limit {
		return
	}
	select {
	case <-ec.stepAdvance:
	case <-ctx.Done():
	}
}
