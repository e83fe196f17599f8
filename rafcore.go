// Package rafcore is the public facade over the hierarchical state-machine
// execution engine: build a tree with internal/core's Machine, drive it
// with an Engine, and observe it through the Bus. Most programs only need
// this package and internal/primitives for the data types; internal/core's
// lower-level tree operations remain available for callers that need finer
// control than the facade exposes.
package rafcore

import (
	"github.com/comalice/rafcore/internal/core"
	"github.com/comalice/rafcore/internal/primitives"
)

type (
	// Machine owns one state tree plus its shared global variable store
	// and observer bus.
	Machine = core.Machine
	// Engine drives one activation of a Machine through start, pause,
	// resume, step and stop.
	Engine = core.Engine
	// State is the common interface satisfied by all five state variants.
	State = core.State
	// Container is implemented by the three container variants.
	Container = core.Container
	// ExecutionState is a leaf state whose body is a Go function.
	ExecutionState = core.ExecutionState
	// ContainerState backs the hierarchy, barrier and preemptive variants.
	ContainerState = core.ContainerState
	// LibraryState embeds a pre-loaded inner state tree.
	LibraryState = core.LibraryState
	// LeafProcedure is the body of an Execution state.
	LeafProcedure = core.LeafProcedure
	// Bus fans Change events out to observers.
	Bus = core.Bus
	// Observer receives Change events from a Bus.
	Observer = core.Observer
	// Change is the generic event shape every observer receives.
	Change = core.Change
	// GlobalVariableStore is the process-wide key/value store machines share.
	GlobalVariableStore = core.GlobalVariableStore
	// HistoryRecorder keeps a bounded log of recent state activations.
	HistoryRecorder = core.HistoryRecorder
	// ControlState is the engine driver's own control state.
	ControlState = core.ControlState
	// Snapshot is a serializable view of a state and its subtree.
	Snapshot = core.Snapshot
)

const (
	KindExecution  = core.KindExecution
	KindHierarchy  = core.KindHierarchy
	KindBarrier    = core.KindBarrier
	KindPreemptive = core.KindPreemptive
	KindLibraryRef = core.KindLibraryRef
)

const (
	OutcomeAborted   = primitives.OutcomeAborted
	OutcomePreempted = primitives.OutcomePreempted
)

// NewMachine wires root into a fresh Machine with its own global variable
// store and observer bus.
func NewMachine(root State) *Machine {
	return core.NewMachine(root)
}

// NewEngine returns an Engine ready to Start driving m, optionally
// recording activation history.
func NewEngine(m *Machine, history *HistoryRecorder) *Engine {
	return core.NewEngine(m, history)
}

// NewExecutionState builds a leaf state whose body is leaf.
func NewExecutionState(id, name, description string, leaf LeafProcedure) *ExecutionState {
	return core.NewExecutionState(id, name, description, leaf)
}

// NewHierarchyState builds an empty hierarchical container.
func NewHierarchyState(id, name, description string) *ContainerState {
	return core.NewHierarchyState(id, name, description)
}

// NewBarrierState builds an empty barrier-concurrency container: all
// children run in parallel and a decider child (set via SetDeciderID)
// computes the container's outcome from its siblings'.
func NewBarrierState(id, name, description string) *ContainerState {
	return core.NewBarrierState(id, name, description)
}

// NewPreemptiveState builds an empty preemptive-concurrency container: the
// first child to finish wins and preempts its siblings.
func NewPreemptiveState(id, name, description string) *ContainerState {
	return core.NewPreemptiveState(id, name, description)
}

// NewLibraryState wraps a pre-loaded inner tree as a reusable reference.
func NewLibraryState(id, name, description string, inner State) *LibraryState {
	return core.NewLibraryState(id, name, description, inner)
}
