package core

import (
	"errors"
	"testing"

	"github.com/comalice/rafcore/internal/primitives"
)

func newTestMachine() *Machine {
	root := NewHierarchyState("root", "root", "")
	return NewMachine(root)
}

func TestMachineAddStateAndFindState(t *testing.T) {
	m := newTestMachine()
	child := NewExecutionState("a", "a", "", leafReturning(0))
	if err := m.AddState("root", child); err != nil {
		t.Fatalf("AddState: %v", err)
	}
	found, err := m.FindState("root/a")
	if err != nil {
		t.Fatalf("FindState: %v", err)
	}
	if found.StateID() != "a" {
		t.Fatalf("expected to find a, got %s", found.StateID())
	}
}

func TestMachineAddStateDuplicateIDFails(t *testing.T) {
	m := newTestMachine()
	a1 := NewExecutionState("a", "a", "", leafReturning(0))
	a2 := NewExecutionState("a", "a-dup", "", leafReturning(0))
	if err := m.AddState("root", a1); err != nil {
		t.Fatalf("AddState: %v", err)
	}
	err := m.AddState("root", a2)
	if !errors.Is(err, primitives.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMachineRemoveStateRejectsRoot(t *testing.T) {
	m := newTestMachine()
	err := m.RemoveState("root")
	if !errors.Is(err, primitives.ErrReservedElement) {
		t.Fatalf("expected ErrReservedElement removing root, got %v", err)
	}
}

func TestMachineRemoveStateCascadesTransitionsAndDataFlows(t *testing.T) {
	m := newTestMachine()
	root := m.Root().(Container)
	a := NewExecutionState("a", "a", "", leafReturning(0))
	b := NewExecutionState("b", "b", "", leafReturning(0))
	if err := m.AddState("root", a); err != nil {
		t.Fatalf("AddState a: %v", err)
	}
	if err := m.AddState("root", b); err != nil {
		t.Fatalf("AddState b: %v", err)
	}
	if err := m.AddPort("root/a", primitives.DataPort{ID: "op", Name: "out", DataType: primitives.TypeInt, Direction: primitives.Output}); err != nil {
		t.Fatalf("AddPort out: %v", err)
	}
	if err := m.AddPort("root/b", primitives.DataPort{ID: "ip", Name: "in", DataType: primitives.TypeInt, Direction: primitives.Input}); err != nil {
		t.Fatalf("AddPort in: %v", err)
	}
	if err := m.AddOutcome("root/a", primitives.Outcome{ID: 0, Name: "success"}); err != nil {
		t.Fatalf("AddOutcome: %v", err)
	}
	if err := m.AddTransition("root", primitives.Transition{ID: "t1", FromState: "a", FromOutcome: 0, ToState: "b"}); err != nil {
		t.Fatalf("AddTransition: %v", err)
	}
	if err := m.AddDataFlow("root", primitives.DataFlow{ID: "df1", FromState: "a", FromPort: "out", ToState: "b", ToPort: "in"}); err != nil {
		t.Fatalf("AddDataFlow: %v", err)
	}
	root.SetStartStateID("a")

	if err := m.RemoveState("root/a"); err != nil {
		t.Fatalf("RemoveState: %v", err)
	}
	if len(root.Transitions()) != 0 {
		t.Fatalf("expected the transition referencing a to be cascaded away, got %+v", root.Transitions())
	}
	if len(root.DataFlows()) != 0 {
		t.Fatalf("expected the data-flow referencing a to be cascaded away, got %+v", root.DataFlows())
	}
	if root.StartStateID() != "" {
		t.Fatalf("expected start_state_id referencing a to be cleared, got %q", root.StartStateID())
	}
}

func TestMachineAddPortUniqueness(t *testing.T) {
	m := newTestMachine()
	a := NewExecutionState("a", "a", "", leafReturning(0))
	if err := m.AddState("root", a); err != nil {
		t.Fatalf("AddState: %v", err)
	}
	p := primitives.DataPort{ID: "p1", Name: "x", DataType: primitives.TypeInt, Direction: primitives.Input}
	if err := m.AddPort("root/a", p); err != nil {
		t.Fatalf("first AddPort: %v", err)
	}
	if err := m.AddPort("root/a", p); !errors.Is(err, primitives.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName on same-name re-add, got %v", err)
	}
}

func TestMachineAddOutcomeRejectsReserved(t *testing.T) {
	m := newTestMachine()
	err := m.AddOutcome("root", primitives.Outcome{ID: primitives.OutcomeAborted, Name: "whatever"})
	if !errors.Is(err, primitives.ErrReservedElement) {
		t.Fatalf("expected ErrReservedElement, got %v", err)
	}
}

func TestMachineRemoveOutcomeRejectsReserved(t *testing.T) {
	m := newTestMachine()
	err := m.RemoveOutcome("root", primitives.OutcomePreempted)
	if !errors.Is(err, primitives.ErrReservedElement) {
		t.Fatalf("expected ErrReservedElement, got %v", err)
	}
}

func TestMachineAddTransitionValidatesEndpoints(t *testing.T) {
	m := newTestMachine()
	a := NewExecutionState("a", "a", "", leafReturning(0))
	if err := m.AddState("root", a); err != nil {
		t.Fatalf("AddState: %v", err)
	}
	if err := m.AddOutcome("root/a", primitives.Outcome{ID: 0, Name: "success"}); err != nil {
		t.Fatalf("AddOutcome: %v", err)
	}
	err := m.AddTransition("root", primitives.Transition{ID: "t", FromState: "a", FromOutcome: 0, ToState: "nonexistent"})
	if !errors.Is(err, primitives.ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference for unknown target state, got %v", err)
	}
}

func TestMachineAddDataFlowRejectsTypeMismatch(t *testing.T) {
	m := newTestMachine()
	a := NewExecutionState("a", "a", "", leafReturning(0))
	b := NewExecutionState("b", "b", "", leafReturning(0))
	if err := m.AddState("root", a); err != nil {
		t.Fatalf("AddState a: %v", err)
	}
	if err := m.AddState("root", b); err != nil {
		t.Fatalf("AddState b: %v", err)
	}
	if err := m.AddPort("root/a", primitives.DataPort{ID: "op", Name: "out", DataType: primitives.TypeString, Direction: primitives.Output}); err != nil {
		t.Fatalf("AddPort out: %v", err)
	}
	if err := m.AddPort("root/b", primitives.DataPort{ID: "ip", Name: "in", DataType: primitives.TypeInt, Direction: primitives.Input}); err != nil {
		t.Fatalf("AddPort in: %v", err)
	}
	err := m.AddDataFlow("root", primitives.DataFlow{ID: "df", FromState: "a", FromPort: "out", ToState: "b", ToPort: "in"})
	if !errors.Is(err, primitives.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch (string -> int), got %v", err)
	}
}

func TestMachineAddDataFlowRejectsSecondTargetOnSamePort(t *testing.T) {
	m := newTestMachine()
	a := NewExecutionState("a", "a", "", leafReturning(0))
	b := NewExecutionState("b", "b", "", leafReturning(0))
	c := NewExecutionState("c", "c", "", leafReturning(0))
	if err := m.AddState("root", a); err != nil {
		t.Fatalf("AddState a: %v", err)
	}
	if err := m.AddState("root", b); err != nil {
		t.Fatalf("AddState b: %v", err)
	}
	if err := m.AddState("root", c); err != nil {
		t.Fatalf("AddState c: %v", err)
	}
	if err := m.AddPort("root/a", primitives.DataPort{ID: "opa", Name: "out", DataType: primitives.TypeInt, Direction: primitives.Output}); err != nil {
		t.Fatalf("AddPort a.out: %v", err)
	}
	if err := m.AddPort("root/b", primitives.DataPort{ID: "opb", Name: "out", DataType: primitives.TypeInt, Direction: primitives.Output}); err != nil {
		t.Fatalf("AddPort b.out: %v", err)
	}
	if err := m.AddPort("root/c", primitives.DataPort{ID: "ip", Name: "in", DataType: primitives.TypeInt, Direction: primitives.Input}); err != nil {
		t.Fatalf("AddPort c.in: %v", err)
	}
	if err := m.AddDataFlow("root", primitives.DataFlow{ID: "df1", FromState: "a", FromPort: "out", ToState: "c", ToPort: "in"}); err != nil {
		t.Fatalf("AddDataFlow df1: %v", err)
	}

	err := m.AddDataFlow("root", primitives.DataFlow{ID: "df2", FromState: "b", FromPort: "out", ToState: "c", ToPort: "in"})
	if !errors.Is(err, primitives.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID for a second data-flow targeting c.in, got %v", err)
	}
	root := m.Root().(Container)
	if len(root.DataFlows()) != 1 {
		t.Fatalf("rejected data-flow must not be applied, got %+v", root.DataFlows())
	}
}

func TestMachineScopedVariableAddRemove(t *testing.T) {
	m := newTestMachine()
	v := primitives.ScopedVariable{ID: "sv1", Name: "counter", DataType: primitives.TypeInt, DefaultValue: primitives.IntValue(0)}
	if err := m.AddScopedVariable("root", v); err != nil {
		t.Fatalf("AddScopedVariable: %v", err)
	}
	root := m.Root().(Container)
	got, ok := root.ScopedValue("counter")
	if !ok || got.Int != 0 {
		t.Fatalf("expected default scoped value 0, got %+v, ok=%v", got, ok)
	}
	if err := m.RemoveScopedVariable("root", "counter"); err != nil {
		t.Fatalf("RemoveScopedVariable: %v", err)
	}
	if _, ok := root.ScopedVariables()["counter"]; ok {
		t.Fatal("scoped variable should be gone after removal")
	}
}

func TestMachineStructuralEditsEmitBusEvents(t *testing.T) {
	m := newTestMachine()
	var got []Change
	m.Bus().Subscribe(EventStructural, ObserverFunc(func(c Change) { got = append(got, c) }))
	a := NewExecutionState("a", "a", "", leafReturning(0))
	if err := m.AddState("root", a); err != nil {
		t.Fatalf("AddState: %v", err)
	}
	if len(got) != 1 || got[0].Property != "state" {
		t.Fatalf("expected one structural 'state' event, got %+v", got)
	}
}
