package core

import (
	"context"
	"sync"

	"github.com/comalice/rafcore/internal/primitives"
)

// ControlState is the driver's own control state, distinct from any
// individual State's run Status.
type ControlState int

const (
	ControlCreated ControlState = iota
	ControlStarted
	ControlPaused
	ControlStopped
	ControlFinished
)

func (c ControlState) String() string {
	switch c {
	case ControlCreated:
		return "CREATED"
	case ControlStarted:
		return "STARTED"
	case ControlPaused:
		return "PAUSED"
	case ControlStopped:
		return "STOPPED"
	case ControlFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Engine drives one activation of a Machine: start/pause/resume/stop and
// the four step operations, translated into latch and step-gate signals
// the runner already understands.
type Engine struct {
	m       *Machine
	history *HistoryRecorder

	mu           sync.Mutex
	control      ControlState
	ec           *ExecutionContext
	cancel       context.CancelFunc
	done         chan struct{}
	finalOutcome *int
	runErr       error
}

// NewEngine returns an Engine in the CREATED control state, ready to Start.
func NewEngine(m *Machine, history *HistoryRecorder) *Engine {
	return &Engine{m: m, history: history, control: ControlCreated}
}

func (e *Engine) ControlState() ControlState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.control
}

// FinalOutcome returns the root's outcome once the engine has reached
// FINISHED; ok is false before then.
func (e *Engine) FinalOutcome() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalOutcome == nil {
		return 0, false
	}
	return *e.finalOutcome, true
}

func (e *Engine) setControl(cs ControlState) {
	before := e.control
	e.control = cs
	e.ec.emit(Change{Kind: EventControlState, Subject: "engine", Property: "controlState", Before: before.String(), After: cs.String()})
}

// Start begins a fresh activation at startStatePath (the tree root if
// empty), spawning the background goroutine that drives the run to
// completion. Only legal from CREATED, STOPPED or FINISHED.
func (e *Engine) Start(startStatePath string) error {
	e.mu.Lock()
	if e.control != ControlCreated && e.control != ControlStopped && e.control != ControlFinished {
		e.mu.Unlock()
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "Start", "engine is "+e.control.String())
	}

	root := e.m.Root()
	if startStatePath != "" {
		s, err := e.m.FindState(startStatePath)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		root = s
	}
	root.ClearRunState()

	ctx, cancel := context.WithCancel(context.Background())
	runID := primitives.NewRunID()
	ec := NewExecutionContext(ctx, runID, e.m.Bus(), e.history, e.m.GlobalVariables())

	e.ec = ec
	e.cancel = cancel
	e.done = make(chan struct{})
	e.finalOutcome = nil
	e.runErr = nil
	e.setControl(ControlStarted)
	done := e.done
	e.mu.Unlock()

	go func() {
		inputs := map[string]primitives.Value{}
		for _, port := range root.InputPorts() {
			v := port.DefaultValue
			if port.DefaultIsGlobalRef() {
				v = primitives.Null
				if gv, ok := ec.GVM.Get(port.GlobalRefName()); ok {
					v = gv
				}
			}
			inputs[port.Name] = v
		}
		root.SetInputData(inputs)

		outcome, err := RunState(ctx, ec, e.m, root)

		e.mu.Lock()
		o := outcome
		e.finalOutcome = &o
		e.runErr = err
		if e.control != ControlStopped {
			e.setControl(ControlFinished)
		}
		e.mu.Unlock()
		close(done)
	}()

	return nil
}

// Pause freezes the whole active chain cooperatively; only legal from
// STARTED.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.control != ControlStarted {
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "Pause", "engine is "+e.control.String())
	}
	RecursivelySetPaused(e.m.Root())
	e.setControl(ControlPaused)
	return nil
}

// Resume unfreezes a paused run; only legal from PAUSED.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.control != ControlPaused {
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "Resume", "engine is "+e.control.String())
	}
	RecursivelySetResumed(e.m.Root())
	e.setControl(ControlStarted)
	return nil
}

// Stop preempts the whole active chain. Idempotent: calling Stop when
// already STOPPED or FINISHED is a no-op, not an error.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.control == ControlStopped || e.control == ControlFinished || e.control == ControlCreated {
		e.mu.Unlock()
		return nil
	}
	RecursivelyPreempt(e.m.Root())
	if e.cancel != nil {
		e.cancel()
	}
	e.setControl(ControlStopped)
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// Wait blocks until the current activation reaches FINISHED or STOPPED.
func (e *Engine) Wait() error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runErr
}

// SetStepMode toggles single-step gating on the running activation. Only
// legal from STARTED or PAUSED.
func (e *Engine) SetStepMode(on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.control != ControlStarted && e.control != ControlPaused {
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "SetStepMode", "engine is "+e.control.String())
	}
	if on {
		e.ec.EnableStepMode()
	} else {
		e.ec.DisableStepMode()
	}
	return nil
}

// StepInto advances exactly one child dispatch, however deep the next one
// recurses.
func (e *Engine) StepInto() error {
	return e.advance(func(ec *ExecutionContext) { ec.AdvanceInto() })
}

// StepOver advances past the next child without pausing inside it, next
// pausing at its following sibling.
func (e *Engine) StepOver() error {
	return e.advance(func(ec *ExecutionContext) { ec.AdvanceOver() })
}

// StepOut runs the current container to completion without pausing inside
// it, next pausing back at its parent's own boundary.
func (e *Engine) StepOut() error {
	return e.advance(func(ec *ExecutionContext) { ec.AdvanceOut() })
}

// StepBackward re-arms the most recently completed state for re-entry,
// using the history recorder's last item to find it. This is a best-effort
// replay aid, not a semantic undo of any side effects the state's leaf
// procedure performed outside the tree.
func (e *Engine) StepBackward() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.control != ControlStarted && e.control != ControlPaused {
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "StepBackward", "engine is "+e.control.String())
	}
	if e.history == nil {
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "StepBackward", "no history recorder configured")
	}
	items := e.history.Items()
	if len(items) == 0 {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "StepBackward", "history is empty")
	}
	last := items[len(items)-1]
	s, err := e.m.FindState(last.Path)
	if err != nil {
		return err
	}
	s.ClearRunState()
	return nil
}

func (e *Engine) advance(f func(*ExecutionContext)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.control != ControlStarted && e.control != ControlPaused {
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "Step", "engine is "+e.control.String())
	}
	if e.ec == nil || !e.ec.IsStepMode() {
		return primitives.NewStructuralError(primitives.KindIllegalControlState, "Step", "step mode is not enabled")
	}
	f(e.ec)
	return nil
}
