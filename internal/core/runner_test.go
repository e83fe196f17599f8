package core

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/rafcore/internal/primitives"
)

func newExecContext() *ExecutionContext {
	return NewExecutionContext(context.Background(), "run-test", NewBus(), nil, NewGlobalVariableStore())
}

func TestRunHierarchyEmptyContainerAborts(t *testing.T) {
	root := NewHierarchyState("empty", "empty", "")
	m := NewMachine(root)
	ec := newExecContext()
	outcome, err := RunState(context.Background(), ec, m, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != primitives.OutcomeAborted {
		t.Fatalf("empty container should immediately abort, got %d", outcome)
	}
}

func TestRunHierarchySequentialTransitions(t *testing.T) {
	m := twoStatePipeline(leafReturning(0))
	ec := newExecContext()
	outcome, err := RunState(context.Background(), ec, m, m.Root())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != 0 {
		t.Fatalf("expected outcome 0, got %d", outcome)
	}
}

func TestRunBarrierWithoutDeciderErrors(t *testing.T) {
	a := NewExecutionState("a", "a", "", leafReturning(0))
	root := NewBarrierState("root", "root", "")
	root.SetChildState("a", a)
	m := NewMachine(root)
	ec := newExecContext()
	outcome, err := RunState(context.Background(), ec, m, root)
	if err == nil {
		t.Fatal("expected an error for a barrier with no decider")
	}
	if outcome != primitives.OutcomeAborted {
		t.Fatalf("expected OutcomeAborted, got %d", outcome)
	}
}

func TestRunBarrierJoinsAllAndRunsDecider(t *testing.T) {
	fast := NewExecutionState("fast", "fast", "", sleepyLeaf(10*time.Millisecond))
	slow := NewExecutionState("slow", "slow", "", sleepyLeaf(60*time.Millisecond))

	var decided map[string]primitives.Value
	decider := NewExecutionState("decider", "decider", "", func(ctx context.Context, ec *ExecutionContext, s *ExecutionState) (int, error) {
		v := s.InputData()["siblingOutcomes"]
		decided = v.Map
		return 0, nil
	})

	root := NewBarrierState("root", "root", "")
	root.SetChildState("fast", fast)
	root.SetChildState("slow", slow)
	root.SetChildState("decider", decider)
	root.SetDeciderID("decider")
	root.SetTransitions([]primitives.Transition{
		{ID: "t", FromState: "decider", FromOutcome: 0, ToOutcome: 0},
	})
	m := NewMachine(root)
	ec := newExecContext()

	outcome, err := RunState(context.Background(), ec, m, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != 0 {
		t.Fatalf("expected outcome 0, got %d", outcome)
	}
	if len(decided) != 2 {
		t.Fatalf("decider should see both siblings' outcomes, got %+v", decided)
	}
}

func TestRunPreemptiveFastWinsAndPreemptsSlow(t *testing.T) {
	fast := NewExecutionState("fast", "fast", "", sleepyLeaf(10*time.Millisecond))
	slowDone := make(chan struct{})
	slow := NewExecutionState("slow", "slow", "", func(ctx context.Context, ec *ExecutionContext, s *ExecutionState) (int, error) {
		defer close(slowDone)
		select {
		case <-time.After(500 * time.Millisecond):
			return 0, nil
		case <-ctx.Done():
			return primitives.OutcomePreempted, ctx.Err()
		}
	})

	root := NewPreemptiveState("root", "root", "")
	root.SetChildState("fast", fast)
	root.SetChildState("slow", slow)
	root.SetTransitions([]primitives.Transition{
		{ID: "t", FromState: "fast", FromOutcome: 0, ToOutcome: 0},
	})
	m := NewMachine(root)
	ec := newExecContext()

	start := time.Now()
	outcome, err := RunState(context.Background(), ec, m, root)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != 0 {
		t.Fatalf("expected the fast child's outcome to win, got %d", outcome)
	}
	if elapsed > 400*time.Millisecond {
		t.Fatalf("preemptive race should not wait for the slow child's full duration, took %s", elapsed)
	}
	<-slowDone
	if !slow.Latches().IsPreempted() {
		t.Fatal("losing sibling should be marked preempted")
	}
}

func TestRunLibraryDelegatesToInner(t *testing.T) {
	inner := NewExecutionState("inner", "inner", "", leafReturning(0))
	lib := NewLibraryState("lib", "lib", "", inner)
	root := NewHierarchyState("root", "root", "")
	root.SetStartStateID("lib")
	root.SetChildState("lib", lib)
	root.SetTransitions([]primitives.Transition{
		{ID: "t", FromState: "lib", FromOutcome: 0, ToOutcome: 0},
	})
	m := NewMachine(root)
	ec := newExecContext()
	outcome, err := RunState(context.Background(), ec, m, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != 0 {
		t.Fatalf("expected outcome 0 via library delegation, got %d", outcome)
	}
}

func TestRunExecutionMissingLeafErrors(t *testing.T) {
	s := NewExecutionState("noleaf", "noleaf", "", nil)
	m := NewMachine(s)
	ec := newExecContext()
	outcome, err := RunState(context.Background(), ec, m, s)
	if err == nil {
		t.Fatal("expected an error for a leaf-less execution state")
	}
	if outcome != primitives.OutcomeAborted {
		t.Fatalf("expected OutcomeAborted, got %d", outcome)
	}
}
