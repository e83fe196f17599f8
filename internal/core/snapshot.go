package core

import "github.com/comalice/rafcore/internal/primitives"

// Snapshot is a serializable view of one state and, recursively, its
// subtree: structure (ports, outcomes, transitions, data-flows) plus
// current run state (status, run id, final outcome). It is what the
// production persister and visualizer both consume.
type Snapshot struct {
	ID           string                     `json:"id" yaml:"id"`
	Name         string                     `json:"name" yaml:"name"`
	Description  string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Kind         string                     `json:"kind" yaml:"kind"`
	Status       string                     `json:"status" yaml:"status"`
	RunID        string                     `json:"runId,omitempty" yaml:"runId,omitempty"`
	FinalOutcome *int                       `json:"finalOutcome,omitempty" yaml:"finalOutcome,omitempty"`
	InputPorts   []primitives.DataPort      `json:"inputPorts,omitempty" yaml:"inputPorts,omitempty"`
	OutputPorts  []primitives.DataPort      `json:"outputPorts,omitempty" yaml:"outputPorts,omitempty"`
	Outcomes     []primitives.Outcome       `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	StartStateID string                     `json:"startStateId,omitempty" yaml:"startStateId,omitempty"`
	DeciderID    string                     `json:"deciderId,omitempty" yaml:"deciderId,omitempty"`
	Transitions  []primitives.Transition    `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	DataFlows    []primitives.DataFlow      `json:"dataFlows,omitempty" yaml:"dataFlows,omitempty"`
	Children     map[string]Snapshot        `json:"children,omitempty" yaml:"children,omitempty"`
	Inner        *Snapshot                  `json:"inner,omitempty" yaml:"inner,omitempty"`
}

// BuildSnapshot walks s (and, if it is a container or library reference,
// its subtree) into a Snapshot.
func BuildSnapshot(s State) Snapshot {
	snap := Snapshot{
		ID:          s.StateID(),
		Name:        s.StateName(),
		Description: s.Description(),
		Kind:        s.Kind().String(),
		Status:      s.Status().String(),
		RunID:       s.RunID(),
		InputPorts:  s.InputPorts(),
		OutputPorts: s.OutputPorts(),
		Outcomes:    s.Outcomes(),
	}
	if fo, ok := s.FinalOutcome(); ok {
		snap.FinalOutcome = &fo
	}
	if cont, ok := s.(Container); ok {
		snap.StartStateID = cont.StartStateID()
		snap.DeciderID = cont.DeciderID()
		snap.Transitions = cont.Transitions()
		snap.DataFlows = cont.DataFlows()
		children := cont.ChildStates()
		if len(children) > 0 {
			snap.Children = make(map[string]Snapshot, len(children))
			for id, child := range children {
				snap.Children[id] = BuildSnapshot(child)
			}
		}
	}
	if lib, ok := s.(*LibraryState); ok && lib.Inner != nil {
		inner := BuildSnapshot(lib.Inner)
		snap.Inner = &inner
	}
	return snap
}
