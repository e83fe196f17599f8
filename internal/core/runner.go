package core

import (
	"context"
	"sync"
	"time"

	"github.com/comalice/rafcore/internal/primitives"
)

// RunState dispatches s to the runner appropriate for its Kind, stamping run
// id and status and emitting the activation's outcome onto the bus. Callers
// are responsible for having already populated s's input data (the parent
// container does this via prepareChildInputs; the engine does it for the
// tree root).
func RunState(ctx context.Context, ec *ExecutionContext, m *Machine, s State) (int, error) {
	s.SetRunID(ec.RunID)
	s.Latches().SetStarted()
	s.SetStatus(StatusActive)
	ec.emit(Change{Kind: EventStatusChange, Subject: s.StateID(), Property: "status", Before: StatusInactive.String(), After: StatusActive.String()})
	enteredAt := time.Now()

	var outcome int
	var err error
	switch s.Kind() {
	case KindExecution:
		outcome, err = runExecution(ctx, ec, s.(*ExecutionState))
	case KindHierarchy:
		outcome, err = runHierarchy(ctx, ec, m, s.(*ContainerState))
	case KindBarrier:
		outcome, err = runBarrier(ctx, ec, m, s.(*ContainerState))
	case KindPreemptive:
		outcome, err = runPreemptive(ctx, ec, m, s.(*ContainerState))
	case KindLibraryRef:
		outcome, err = runLibrary(ctx, ec, m, s.(*LibraryState))
	}

	s.SetFinalOutcome(outcome)
	s.SetStatus(StatusInactive)
	ec.emit(Change{Kind: EventStatusChange, Subject: s.StateID(), Property: "status", Before: StatusActive.String(), After: StatusInactive.String()})
	ec.emit(Change{
		Kind:     EventOutcome,
		Subject:  s.StateID(),
		Property: "outcome",
		After:    outcome,
		Info: map[string]any{
			"runId":     ec.RunID,
			"enteredAt": enteredAt,
			"exitedAt":  time.Now(),
		},
	})
	return outcome, err
}

func runExecution(ctx context.Context, ec *ExecutionContext, s *ExecutionState) (int, error) {
	if s.Leaf == nil {
		return primitives.OutcomeAborted, primitives.NewStructuralError(primitives.KindUnknownReference, "runExecution", "state "+s.StateID()+" has no leaf procedure")
	}
	outcome, err := s.Leaf(ctx, ec, s)
	if err != nil {
		out := s.OutputData()
		out["error"] = primitives.ErrorValue(err)
		s.SetOutputData(out)
		return primitives.OutcomeAborted, err
	}
	return outcome, nil
}

// writeToEndpoint stores v at the data-flow endpoint (stateID, portName)
// within container c. stateID == "" addresses the container itself: its own
// output port, or one of its scoped variables if portName names one.
func writeToEndpoint(c Container, stateID, portName string, v primitives.Value) {
	if stateID == "" {
		if _, isScoped := c.ScopedVariables()[portName]; isScoped {
			c.SetScopedValue(portName, v)
			return
		}
		st := c.(State)
		out := st.OutputData()
		out[portName] = v
		st.SetOutputData(out)
		return
	}
	child, ok := c.ChildStates()[stateID]
	if !ok {
		return
	}
	in := child.InputData()
	in[portName] = v
	child.SetInputData(in)
}

// readFromEndpoint is writeToEndpoint's read-side counterpart.
func readFromEndpoint(c Container, stateID, portName string) (primitives.Value, bool) {
	if stateID == "" {
		if v, ok := c.ScopedValue(portName); ok {
			return v, true
		}
		st := c.(State)
		v, ok := st.InputData()[portName]
		return v, ok
	}
	child, ok := c.ChildStates()[stateID]
	if !ok {
		return primitives.Null, false
	}
	v, ok := child.OutputData()[portName]
	return v, ok
}

// propagateDataFlows pushes the value just produced at (fromState, fromPort)
// to every data-flow in c sourced there.
func propagateDataFlows(c Container, fromState, fromPort string, v primitives.Value) {
	for _, df := range c.DataFlows() {
		if df.FromState == fromState && df.FromPort == fromPort {
			writeToEndpoint(c, df.ToState, df.ToPort, v)
		}
	}
}

// prepareChildInputs resolves every input port of child: a data-flow from an
// already-available producer wins, else a "$name" default resolves through
// the global variable store (to Null when that global does not exist), else
// the port's literal default is used.
func prepareChildInputs(ec *ExecutionContext, parent Container, child State) {
	inputs := map[string]primitives.Value{}
	for _, port := range child.InputPorts() {
		v, found := port.DefaultValue, false
		for _, df := range parent.DataFlows() {
			if df.ToState == child.StateID() && df.ToPort == port.Name {
				if val, ok := readFromEndpoint(parent, df.FromState, df.FromPort); ok {
					v, found = val, true
				}
				break
			}
		}
		if !found && port.DefaultIsGlobalRef() {
			v = primitives.Null
			if val, ok := ec.GVM.Get(port.GlobalRefName()); ok {
				v = val
			}
		}
		inputs[port.Name] = v
	}
	child.SetInputData(inputs)
}

// propagateChildOutputs pushes every output port value child just produced
// onward through parent's data-flows.
func propagateChildOutputs(parent Container, child State) {
	out := child.OutputData()
	for _, port := range child.OutputPorts() {
		if v, ok := out[port.Name]; ok {
			propagateDataFlows(parent, child.StateID(), port.Name, v)
		}
	}
}

// resolveTransition looks up the transition firing for (fromState,
// fromOutcome) within c. terminal is true when the container itself has
// reached its own outcome (either via an explicit to_outcome transition, or
// because fromOutcome was one of the two reserved outcomes and no explicit
// transition overrides it). A non-reserved fromOutcome with no matching
// transition also ends the container, with the aborted outcome.
func resolveTransition(c Container, fromState string, fromOutcome int) (nextChild string, parentOutcome int, terminal bool) {
	for _, t := range c.Transitions() {
		if t.FromState == fromState && t.FromOutcome == fromOutcome {
			if t.TargetsParentOutcome() {
				return "", t.ToOutcome, true
			}
			return t.ToState, 0, false
		}
	}
	if primitives.IsReserved(fromOutcome) {
		return "", fromOutcome, true
	}
	return "", primitives.OutcomeAborted, true
}

// runHierarchy drives the sequential child-to-child loop: prepare inputs,
// run one child, propagate its outputs, resolve the transition that fires on
// its outcome, and either continue with a sibling or finish with the
// container's own outcome.
func runHierarchy(ctx context.Context, ec *ExecutionContext, m *Machine, c *ContainerState) (int, error) {
	childID := c.StartStateID()
	if childID == "" {
		if len(c.ChildStates()) == 0 {
			return primitives.OutcomeAborted, nil
		}
		return primitives.OutcomeAborted, primitives.NewStructuralError(primitives.KindUnknownReference, "runHierarchy", "no start_state_id on "+c.StateID())
	}

	for {
		if c.Latches().IsPreempted() {
			return primitives.OutcomePreempted, nil
		}
		c.Latches().WaitUnpaused(ec.Ctx)
		if c.Latches().IsPreempted() {
			return primitives.OutcomePreempted, nil
		}

		child, ok := c.ChildStates()[childID]
		if !ok {
			return primitives.OutcomeAborted, primitives.NewStructuralError(primitives.KindUnknownReference, "runHierarchy", "unknown child "+childID+" under "+c.StateID())
		}

		childDepth := ec.enterDepth()
		ec.waitStep(ec.Ctx, childDepth)
		if c.Latches().IsPreempted() {
			ec.exitDepth()
			return primitives.OutcomePreempted, nil
		}

		prepareChildInputs(ec, c, child)
		c.SetStatus(StatusExecuteChildren)
		outcome, _ := RunState(ctx, ec, m, child)
		propagateChildOutputs(c, child)
		ec.exitDepth()

		next, parentOutcome, terminal := resolveTransition(c, childID, outcome)
		if terminal {
			return parentOutcome, nil
		}
		childID = next
	}
}

// runBarrier runs every non-decider child concurrently, joins all of them,
// then runs the decider with the siblings' outcomes available on its
// "siblingOutcomes" input, translating the decider's own outcome through
// the container's transition table.
func runBarrier(ctx context.Context, ec *ExecutionContext, m *Machine, c *ContainerState) (int, error) {
	children := c.ChildStates()
	deciderID := c.DeciderID()

	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := map[string]int{}
	for id, child := range children {
		if id == deciderID {
			continue
		}
		wg.Add(1)
		go func(id string, child State) {
			defer wg.Done()
			prepareChildInputs(ec, c, child)
			outcome, _ := RunState(ctx, ec, m, child)
			propagateChildOutputs(c, child)
			mu.Lock()
			outcomes[id] = outcome
			mu.Unlock()
		}(id, child)
	}
	wg.Wait()

	if c.Latches().IsPreempted() {
		return primitives.OutcomePreempted, nil
	}
	if deciderID == "" {
		return primitives.OutcomeAborted, primitives.NewStructuralError(primitives.KindUnknownReference, "runBarrier", "barrier "+c.StateID()+" has no decider")
	}
	decider, ok := children[deciderID]
	if !ok {
		return primitives.OutcomeAborted, primitives.NewStructuralError(primitives.KindUnknownReference, "runBarrier", "decider "+deciderID+" not found under "+c.StateID())
	}

	siblingOutcomes := map[string]primitives.Value{}
	for id, o := range outcomes {
		siblingOutcomes[id] = primitives.IntValue(int64(o))
	}
	prepareChildInputs(ec, c, decider)
	din := decider.InputData()
	din["siblingOutcomes"] = primitives.MapValue(siblingOutcomes)
	decider.SetInputData(din)

	deciderOutcome, _ := RunState(ctx, ec, m, decider)
	propagateChildOutputs(c, decider)

	_, parentOutcome, terminal := resolveTransition(c, deciderID, deciderOutcome)
	if terminal {
		return parentOutcome, nil
	}
	return primitives.OutcomeAborted, nil
}

// runPreemptive races every child concurrently; the first to finish
// broadcasts preemption to its siblings and cancels their context, and
// returns as soon as that winner is known instead of waiting for the losers
// to unwind. Losers are drained and discarded in the background so a leaf
// that ignores its latch and blocks on ctx.Done() still can't hold up the
// container; the winner's outcome is translated through the container's
// transition table.
func runPreemptive(ctx context.Context, ec *ExecutionContext, m *Machine, c *ContainerState) (int, error) {
	children := c.ChildStates()

	type result struct {
		id      string
		outcome int
	}
	resCh := make(chan result, len(children))
	cancels := make(map[string]context.CancelFunc, len(children))
	var wg sync.WaitGroup
	for id, child := range children {
		childCtx, cancel := context.WithCancel(ctx)
		cancels[id] = cancel
		wg.Add(1)
		go func(id string, child State, childCtx context.Context) {
			defer wg.Done()
			prepareChildInputs(ec, c, child)
			outcome, _ := RunState(childCtx, ec, m, child)
			propagateChildOutputs(c, child)
			resCh <- result{id, outcome}
		}(id, child, childCtx)
	}
	go func() {
		wg.Wait()
		close(resCh)
	}()

	winner, ok := <-resCh
	if !ok {
		return primitives.OutcomePreempted, nil
	}
	for id, sib := range children {
		if id != winner.id {
			RecursivelyPreempt(sib)
		}
		cancels[id]()
	}
	go func() {
		for range resCh {
		}
	}()

	_, parentOutcome, terminal := resolveTransition(c, winner.id, winner.outcome)
	if terminal {
		return parentOutcome, nil
	}
	return primitives.OutcomeAborted, nil
}

// runLibrary delegates to the pre-loaded inner tree, applying any runtime
// port overrides first.
func runLibrary(ctx context.Context, ec *ExecutionContext, m *Machine, l *LibraryState) (int, error) {
	inner := l.Inner
	if inner == nil {
		return primitives.OutcomeAborted, primitives.NewStructuralError(primitives.KindUnknownReference, "runLibrary", "library "+l.StateID()+" has no inner state")
	}

	inputs := map[string]primitives.Value{}
	for _, port := range inner.InputPorts() {
		v := port.DefaultValue
		if ov, ok := l.PortOverrides[port.Name]; ok && ov.UseRuntimeValue {
			v = ov.RuntimeValue
		} else if port.DefaultIsGlobalRef() {
			v = primitives.Null
			if gv, ok := ec.GVM.Get(port.GlobalRefName()); ok {
				v = gv
			}
		}
		inputs[port.Name] = v
	}
	inner.SetInputData(inputs)

	outcome, err := RunState(ctx, ec, m, inner)
	l.SetOutputData(inner.OutputData())
	return outcome, err
}
