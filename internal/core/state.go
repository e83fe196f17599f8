package core

import (
	"sync"

	"github.com/comalice/rafcore/internal/primitives"
)

// Kind distinguishes the five state variants.
type Kind int

const (
	KindExecution Kind = iota
	KindHierarchy
	KindBarrier
	KindPreemptive
	KindLibraryRef
)

func (k Kind) String() string {
	switch k {
	case KindExecution:
		return "execution"
	case KindHierarchy:
		return "hierarchy"
	case KindBarrier:
		return "barrier"
	case KindPreemptive:
		return "preemptive"
	case KindLibraryRef:
		return "library_ref"
	default:
		return "unknown"
	}
}

// Status is a state's run-time activation status.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
	StatusExecuteChildren
	StatusWaitForNextState
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusActive:
		return "active"
	case StatusExecuteChildren:
		return "execute_children"
	case StatusWaitForNextState:
		return "wait_for_next_state"
	default:
		return "unknown"
	}
}

// State is the common interface satisfied by all five state variants. Run
// state (status, input/output data, final outcome, run id) is guarded by an
// internal mutex since the engine, the runner and observers all read it
// concurrently.
type State interface {
	StateID() string
	StateName() string
	Description() string
	Kind() Kind
	Parent() Container
	setParent(Container)
	InputPorts() []primitives.DataPort
	OutputPorts() []primitives.DataPort
	Outcomes() []primitives.Outcome
	SetOutcomes([]primitives.Outcome)
	SetInputPorts([]primitives.DataPort)
	SetOutputPorts([]primitives.DataPort)
	Latches() *EventLatches

	Status() Status
	SetStatus(Status)
	RunID() string
	SetRunID(string)
	InputData() map[string]primitives.Value
	SetInputData(map[string]primitives.Value)
	OutputData() map[string]primitives.Value
	SetOutputData(map[string]primitives.Value)
	FinalOutcome() (int, bool)
	SetFinalOutcome(int)
	ClearRunState()
}

// Container is implemented by the three container variants: hierarchy,
// barrier and preemptive. Library-reference and execution states are leaves
// of the structural tree (a library's inner tree is opaque to the parent).
type Container interface {
	State
	ChildStates() map[string]State
	SetChildState(name string, s State)
	RemoveChildState(name string)
	Transitions() []primitives.Transition
	SetTransitions([]primitives.Transition)
	DataFlows() []primitives.DataFlow
	SetDataFlows([]primitives.DataFlow)
	ScopedVariables() map[string]primitives.ScopedVariable
	SetScopedVariables(map[string]primitives.ScopedVariable)
	ScopedValue(name string) (primitives.Value, bool)
	SetScopedValue(name string, v primitives.Value)
	StartStateID() string
	SetStartStateID(string)
	DeciderID() string
	SetDeciderID(string)
}

// StateBase is embedded by every variant and carries the fields and
// run-state mutex common to all of them.
type StateBase struct {
	id          string
	name        string
	description string

	mu          sync.RWMutex
	parent      Container
	inputPorts  []primitives.DataPort
	outputPorts []primitives.DataPort
	outcomes    []primitives.Outcome

	status       Status
	runID        string
	inputData    map[string]primitives.Value
	outputData   map[string]primitives.Value
	finalOutcome *int

	latches *EventLatches
}

func newStateBase(id, name, description string) StateBase {
	return StateBase{
		id:          id,
		name:        name,
		description: description,
		outcomes:    primitives.ReservedOutcomes(),
		inputData:   map[string]primitives.Value{},
		outputData:  map[string]primitives.Value{},
		latches:     NewEventLatches(),
	}
}

func (b *StateBase) StateID() string      { return b.id }
func (b *StateBase) StateName() string    { return b.name }
func (b *StateBase) Description() string  { return b.description }
func (b *StateBase) Latches() *EventLatches { return b.latches }

func (b *StateBase) Parent() Container {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.parent
}

func (b *StateBase) setParent(c Container) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = c
}

func (b *StateBase) InputPorts() []primitives.DataPort {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]primitives.DataPort(nil), b.inputPorts...)
}

func (b *StateBase) SetInputPorts(ports []primitives.DataPort) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputPorts = ports
}

func (b *StateBase) OutputPorts() []primitives.DataPort {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]primitives.DataPort(nil), b.outputPorts...)
}

func (b *StateBase) SetOutputPorts(ports []primitives.DataPort) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputPorts = ports
}

func (b *StateBase) Outcomes() []primitives.Outcome {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]primitives.Outcome(nil), b.outcomes...)
}

func (b *StateBase) SetOutcomes(outs []primitives.Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcomes = outs
}

func (b *StateBase) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *StateBase) SetStatus(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

func (b *StateBase) RunID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.runID
}

func (b *StateBase) SetRunID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runID = id
}

func (b *StateBase) InputData() map[string]primitives.Value {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]primitives.Value, len(b.inputData))
	for k, v := range b.inputData {
		out[k] = v
	}
	return out
}

func (b *StateBase) SetInputData(m map[string]primitives.Value) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputData = m
}

func (b *StateBase) OutputData() map[string]primitives.Value {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]primitives.Value, len(b.outputData))
	for k, v := range b.outputData {
		out[k] = v
	}
	return out
}

func (b *StateBase) SetOutputData(m map[string]primitives.Value) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputData = m
}

func (b *StateBase) FinalOutcome() (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.finalOutcome == nil {
		return 0, false
	}
	return *b.finalOutcome, true
}

func (b *StateBase) SetFinalOutcome(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := id
	b.finalOutcome = &v
}

// ClearRunState resets everything that is scoped to a single activation, so
// the state is ready to be entered again under a new run id.
func (b *StateBase) ClearRunState() {
	b.mu.Lock()
	b.status = StatusInactive
	b.runID = ""
	b.inputData = map[string]primitives.Value{}
	b.outputData = map[string]primitives.Value{}
	b.finalOutcome = nil
	b.mu.Unlock()
	b.latches.Reset()
}

// ExecutionState is a leaf state whose body is a Go function.
type ExecutionState struct {
	StateBase
	Leaf LeafProcedure
}

func NewExecutionState(id, name, description string, leaf LeafProcedure) *ExecutionState {
	return &ExecutionState{StateBase: newStateBase(id, name, description), Leaf: leaf}
}

func (s *ExecutionState) Kind() Kind { return KindExecution }

// ContainerState is the field set shared by all three container variants.
// They are modeled as one tagged-union struct (ContainerState.kind selects
// hierarchy/barrier/preemptive) since their structural shape is identical;
// only the runner's dispatch on Kind() differs.
type ContainerState struct {
	StateBase
	kind Kind

	children  map[string]State
	transitions []primitives.Transition
	dataFlows []primitives.DataFlow
	scopedVars map[string]primitives.ScopedVariable
	scopedValues map[string]primitives.Value
	startStateID string
	deciderID    string
}

func newContainerState(kind Kind, id, name, description string) *ContainerState {
	return &ContainerState{
		StateBase:    newStateBase(id, name, description),
		kind:         kind,
		children:     map[string]State{},
		scopedVars:   map[string]primitives.ScopedVariable{},
		scopedValues: map[string]primitives.Value{},
	}
}

func NewHierarchyState(id, name, description string) *ContainerState {
	return newContainerState(KindHierarchy, id, name, description)
}

func NewBarrierState(id, name, description string) *ContainerState {
	return newContainerState(KindBarrier, id, name, description)
}

func NewPreemptiveState(id, name, description string) *ContainerState {
	return newContainerState(KindPreemptive, id, name, description)
}

func (c *ContainerState) Kind() Kind { return c.kind }

func (c *ContainerState) ChildStates() map[string]State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]State, len(c.children))
	for k, v := range c.children {
		out[k] = v
	}
	return out
}

func (c *ContainerState) SetChildState(name string, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children[name] = s
}

func (c *ContainerState) RemoveChildState(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.children, name)
}

func (c *ContainerState) Transitions() []primitives.Transition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]primitives.Transition(nil), c.transitions...)
}

func (c *ContainerState) SetTransitions(t []primitives.Transition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitions = t
}

func (c *ContainerState) DataFlows() []primitives.DataFlow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]primitives.DataFlow(nil), c.dataFlows...)
}

func (c *ContainerState) SetDataFlows(d []primitives.DataFlow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataFlows = d
}

func (c *ContainerState) ScopedVariables() map[string]primitives.ScopedVariable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]primitives.ScopedVariable, len(c.scopedVars))
	for k, v := range c.scopedVars {
		out[k] = v
	}
	return out
}

func (c *ContainerState) SetScopedVariables(v map[string]primitives.ScopedVariable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopedVars = v
}

func (c *ContainerState) ScopedValue(name string) (primitives.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.scopedValues[name]
	return v, ok
}

func (c *ContainerState) SetScopedValue(name string, v primitives.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scopedValues == nil {
		c.scopedValues = map[string]primitives.Value{}
	}
	c.scopedValues[name] = v
}

func (c *ContainerState) StartStateID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startStateID
}

func (c *ContainerState) SetStartStateID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startStateID = id
}

func (c *ContainerState) DeciderID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deciderID
}

func (c *ContainerState) SetDeciderID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deciderID = id
}

// PortOverride lets a library reference either pass a runtime value straight
// through to the inner tree's matching input port, or fall back to the
// inner port's own default.
type PortOverride struct {
	UseRuntimeValue bool
	RuntimeValue    primitives.Value
}

// LibraryState embeds a pre-loaded inner state tree. The inner tree's own
// structure is opaque to the parent: only the library's declared ports and
// outcomes are visible outside it.
type LibraryState struct {
	StateBase
	Inner         State
	PortOverrides map[string]PortOverride
}

func NewLibraryState(id, name, description string, inner State) *LibraryState {
	return &LibraryState{
		StateBase:     newStateBase(id, name, description),
		Inner:         inner,
		PortOverrides: map[string]PortOverride{},
	}
}

func (s *LibraryState) Kind() Kind { return KindLibraryRef }

var (
	_ State     = (*ExecutionState)(nil)
	_ State     = (*LibraryState)(nil)
	_ Container = (*ContainerState)(nil)
)
