package core

import (
	"sync"

	"github.com/comalice/rafcore/internal/primitives"
)

// Machine owns one state tree plus the resources every activation of it
// shares: the global variable store and the observer bus. mu guards every
// structural mutation so editing a running machine serializes against
// whatever the engine is doing to the same tree.
type Machine struct {
	mu   sync.RWMutex
	root State
	bus  *Bus
	gvm  *GlobalVariableStore
}

// NewMachine wires a root state into a fresh machine with its own bus and
// global variable store.
func NewMachine(root State) *Machine {
	return &Machine{root: root, bus: NewBus(), gvm: NewGlobalVariableStore()}
}

func (m *Machine) Root() State                    { return m.root }
func (m *Machine) Bus() *Bus                       { return m.bus }
func (m *Machine) GlobalVariables() *GlobalVariableStore { return m.gvm }

// FindState resolves a "/"-joined path of state ids to a State. An empty
// path, or a path whose first segment is the root's own id, both resolve
// relative to the root.
func (m *Machine) FindState(path string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolveLocked(path)
}

func (m *Machine) resolveLocked(path string) (State, error) {
	segs := primitives.SplitPath(path)
	cur := m.root
	if len(segs) > 0 && segs[0] == cur.StateID() {
		segs = segs[1:]
	}
	for _, seg := range segs {
		cont, ok := cur.(Container)
		if !ok {
			return nil, primitives.NewStructuralError(primitives.KindUnknownReference, "FindState", "path "+path+": "+cur.StateID()+" has no children")
		}
		next, ok := cont.ChildStates()[seg]
		if !ok {
			return nil, primitives.NewStructuralError(primitives.KindUnknownReference, "FindState", "path "+path+": no child "+seg+" under "+cur.StateID())
		}
		cur = next
	}
	return cur, nil
}

// AddState attaches child under the container at parentPath. Validate, then
// apply, then emit: on any validation failure the tree is untouched.
func (m *Machine) AddState(parentPath string, child State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, err := m.resolveLocked(parentPath)
	if err != nil {
		return err
	}
	cont, ok := parent.(Container)
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "AddState", parentPath+" is not a container")
	}
	if _, dup := cont.ChildStates()[child.StateID()]; dup {
		return primitives.NewStructuralError(primitives.KindDuplicateID, "AddState", "state id "+child.StateID()+" already exists under "+parentPath)
	}

	child.setParent(cont)
	cont.SetChildState(child.StateID(), child)
	m.bus.Emit(Change{Kind: EventStructural, Subject: primitives.JoinPath(parentPath, child.StateID()), Property: "state", After: child.StateID()})
	return nil
}

// RemoveState detaches and discards the state (and, transitively, its
// whole subtree) at path. Removing the root is a ReservedElement error.
func (m *Machine) RemoveState(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(path)
	if err != nil {
		return err
	}
	parent := s.Parent()
	if parent == nil {
		return primitives.NewStructuralError(primitives.KindReservedElement, "RemoveState", "cannot remove the root state")
	}
	cascadeRemoveReferences(parent, s.StateID())
	parent.RemoveChildState(s.StateID())
	s.setParent(nil)
	m.bus.Emit(Change{Kind: EventStructural, Subject: path, Property: "state", Before: s.StateID()})
	return nil
}

// cascadeRemoveReferences drops any transition or data-flow on parent that
// names the child being removed as an endpoint.
func cascadeRemoveReferences(parent Container, childID string) {
	kept := parent.Transitions()[:0:0]
	for _, t := range parent.Transitions() {
		if t.FromState != childID && t.ToState != childID {
			kept = append(kept, t)
		}
	}
	parent.SetTransitions(kept)

	keptDF := parent.DataFlows()[:0:0]
	for _, d := range parent.DataFlows() {
		if d.FromState != childID && d.ToState != childID {
			keptDF = append(keptDF, d)
		}
	}
	parent.SetDataFlows(keptDF)

	if parent.StartStateID() == childID {
		parent.SetStartStateID("")
	}
	if parent.DeciderID() == childID {
		parent.SetDeciderID("")
	}
}

// AddPort adds an input or output port to the state at path. Port names
// must be unique per direction within the state.
func (m *Machine) AddPort(path string, port primitives.DataPort) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(path)
	if err != nil {
		return err
	}
	if err := port.Validate(); err != nil {
		return err
	}

	existing := s.InputPorts()
	if port.Direction == primitives.Output {
		existing = s.OutputPorts()
	}
	for _, p := range existing {
		if p.Name == port.Name {
			return primitives.NewStructuralError(primitives.KindDuplicateName, "AddPort", "port name "+port.Name+" already exists on "+path)
		}
	}
	for _, p := range append(s.InputPorts(), s.OutputPorts()...) {
		if p.ID == port.ID {
			return primitives.NewStructuralError(primitives.KindDuplicateID, "AddPort", "port id "+port.ID+" already exists on "+path)
		}
	}

	if port.Direction == primitives.Output {
		s.SetOutputPorts(append(existing, port))
	} else {
		s.SetInputPorts(append(existing, port))
	}
	m.bus.Emit(Change{Kind: EventStructural, Subject: path, Property: "port", After: port.Name})
	return nil
}

// RemovePort removes the named port of the given direction from the state
// at path, then cascades: any data-flow naming it as an endpoint is dropped,
// both in the parent and, when the state is itself a container, among its
// own data-flows that reach the port through the "" endpoint.
func (m *Machine) RemovePort(path, name string, dir primitives.Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(path)
	if err != nil {
		return err
	}

	if dir == primitives.Output {
		ports := s.OutputPorts()
		out := ports[:0:0]
		found := false
		for _, p := range ports {
			if p.Name == name {
				found = true
				continue
			}
			out = append(out, p)
		}
		if !found {
			return primitives.NewStructuralError(primitives.KindUnknownReference, "RemovePort", "no output port "+name+" on "+path)
		}
		s.SetOutputPorts(out)
	} else {
		ports := s.InputPorts()
		in := ports[:0:0]
		found := false
		for _, p := range ports {
			if p.Name == name {
				found = true
				continue
			}
			in = append(in, p)
		}
		if !found {
			return primitives.NewStructuralError(primitives.KindUnknownReference, "RemovePort", "no input port "+name+" on "+path)
		}
		s.SetInputPorts(in)
	}

	if parent := s.Parent(); parent != nil {
		kept := parent.DataFlows()[:0:0]
		for _, d := range parent.DataFlows() {
			if d.FromState == s.StateID() && d.FromPort == name && dir == primitives.Output {
				continue
			}
			if d.ToState == s.StateID() && d.ToPort == name && dir == primitives.Input {
				continue
			}
			kept = append(kept, d)
		}
		parent.SetDataFlows(kept)
	}
	if cont, ok := s.(Container); ok {
		if _, scoped := cont.ScopedVariables()[name]; !scoped {
			kept := cont.DataFlows()[:0:0]
			for _, d := range cont.DataFlows() {
				if d.FromState == "" && d.FromPort == name && dir == primitives.Input {
					continue
				}
				if d.ToState == "" && d.ToPort == name && dir == primitives.Output {
					continue
				}
				kept = append(kept, d)
			}
			cont.SetDataFlows(kept)
		}
	}

	m.bus.Emit(Change{Kind: EventStructural, Subject: path, Property: "port", Before: name})
	return nil
}

// AddOutcome adds a non-reserved outcome to the state at path.
func (m *Machine) AddOutcome(path string, outcome primitives.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(path)
	if err != nil {
		return err
	}
	if primitives.IsReserved(outcome.ID) {
		return primitives.NewStructuralError(primitives.KindReservedElement, "AddOutcome", "outcome id is reserved")
	}
	if err := outcome.Validate(); err != nil {
		return err
	}
	for _, o := range s.Outcomes() {
		if o.Name == outcome.Name {
			return primitives.NewStructuralError(primitives.KindDuplicateName, "AddOutcome", "outcome name "+outcome.Name+" already exists on "+path)
		}
		if o.ID == outcome.ID {
			return primitives.NewStructuralError(primitives.KindDuplicateID, "AddOutcome", "outcome id already exists on "+path)
		}
	}
	s.SetOutcomes(append(s.Outcomes(), outcome))
	m.bus.Emit(Change{Kind: EventStructural, Subject: path, Property: "outcome", After: outcome.Name})
	return nil
}

// RemoveOutcome removes a non-reserved outcome by id, cascading to any
// transition on the parent that originates from it.
func (m *Machine) RemoveOutcome(path string, outcomeID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if primitives.IsReserved(outcomeID) {
		return primitives.NewStructuralError(primitives.KindReservedElement, "RemoveOutcome", "reserved outcomes cannot be removed")
	}
	s, err := m.resolveLocked(path)
	if err != nil {
		return err
	}
	outs := s.Outcomes()
	kept := outs[:0:0]
	found := false
	for _, o := range outs {
		if o.ID == outcomeID {
			found = true
			continue
		}
		kept = append(kept, o)
	}
	if !found {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "RemoveOutcome", "no outcome id on "+path)
	}
	s.SetOutcomes(kept)

	if parent := s.Parent(); parent != nil {
		tk := parent.Transitions()[:0:0]
		for _, t := range parent.Transitions() {
			if t.FromState == s.StateID() && t.FromOutcome == outcomeID {
				continue
			}
			tk = append(tk, t)
		}
		parent.SetTransitions(tk)
	}

	m.bus.Emit(Change{Kind: EventStructural, Subject: path, Property: "outcome", Before: outcomeID})
	return nil
}

// AddTransition adds a transition to the container at containerPath. Both
// endpoints (from_state+from_outcome, and to_state or the container's own
// outcome) must already resolve.
func (m *Machine) AddTransition(containerPath string, t primitives.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(containerPath)
	if err != nil {
		return err
	}
	cont, ok := s.(Container)
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "AddTransition", containerPath+" is not a container")
	}
	from, ok := cont.ChildStates()[t.FromState]
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "AddTransition", "no child "+t.FromState+" under "+containerPath)
	}
	if !primitives.IsReserved(t.FromOutcome) {
		found := false
		for _, o := range from.Outcomes() {
			if o.ID == t.FromOutcome {
				found = true
				break
			}
		}
		if !found {
			return primitives.NewStructuralError(primitives.KindUnknownReference, "AddTransition", "from_outcome unknown on "+t.FromState)
		}
	}
	if t.TargetsParentOutcome() {
		found := false
		for _, o := range cont.Outcomes() {
			if o.ID == t.ToOutcome {
				found = true
				break
			}
		}
		if !found {
			return primitives.NewStructuralError(primitives.KindUnknownReference, "AddTransition", "to_outcome unknown on "+containerPath)
		}
	} else if _, ok := cont.ChildStates()[t.ToState]; !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "AddTransition", "no child "+t.ToState+" under "+containerPath)
	}

	cont.SetTransitions(append(cont.Transitions(), t))
	m.bus.Emit(Change{Kind: EventStructural, Subject: containerPath, Property: "transition", After: t.ID})
	return nil
}

// RemoveTransition removes the transition with the given id from the
// container at containerPath.
func (m *Machine) RemoveTransition(containerPath, transitionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(containerPath)
	if err != nil {
		return err
	}
	cont, ok := s.(Container)
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "RemoveTransition", containerPath+" is not a container")
	}
	ts := cont.Transitions()
	kept := ts[:0:0]
	found := false
	for _, t := range ts {
		if t.ID == transitionID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "RemoveTransition", "no transition "+transitionID+" under "+containerPath)
	}
	cont.SetTransitions(kept)
	m.bus.Emit(Change{Kind: EventStructural, Subject: containerPath, Property: "transition", Before: transitionID})
	return nil
}

// AddDataFlow adds a data-flow edge to the container at containerPath,
// validating that both endpoint ports exist and are type-assignable.
func (m *Machine) AddDataFlow(containerPath string, df primitives.DataFlow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(containerPath)
	if err != nil {
		return err
	}
	cont, ok := s.(Container)
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "AddDataFlow", containerPath+" is not a container")
	}

	fromType, err := resolveOutputPortType(cont, df.FromState, df.FromPort)
	if err != nil {
		return err
	}
	toType, err := resolveInputPortType(cont, df.ToState, df.ToPort)
	if err != nil {
		return err
	}
	if !primitives.Assignable(fromType, toType) {
		return primitives.NewStructuralError(primitives.KindTypeMismatch, "AddDataFlow", "cannot assign "+string(fromType)+" to "+string(toType))
	}
	for _, existing := range cont.DataFlows() {
		if existing.ToState == df.ToState && existing.ToPort == df.ToPort {
			return primitives.NewStructuralError(primitives.KindDuplicateID, "AddDataFlow", "input port "+df.ToState+"."+df.ToPort+" already has a data-flow targeting it")
		}
	}

	cont.SetDataFlows(append(cont.DataFlows(), df))
	m.bus.Emit(Change{Kind: EventStructural, Subject: containerPath, Property: "dataFlow", After: df.ID})
	return nil
}

// RemoveDataFlow removes the data-flow with the given id.
func (m *Machine) RemoveDataFlow(containerPath, dataFlowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(containerPath)
	if err != nil {
		return err
	}
	cont, ok := s.(Container)
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "RemoveDataFlow", containerPath+" is not a container")
	}
	dfs := cont.DataFlows()
	kept := dfs[:0:0]
	found := false
	for _, d := range dfs {
		if d.ID == dataFlowID {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "RemoveDataFlow", "no data-flow "+dataFlowID+" under "+containerPath)
	}
	cont.SetDataFlows(kept)
	m.bus.Emit(Change{Kind: EventStructural, Subject: containerPath, Property: "dataFlow", Before: dataFlowID})
	return nil
}

func resolveOutputPortType(cont Container, stateID, portName string) (primitives.DataType, error) {
	if stateID == "" {
		if sv, ok := cont.ScopedVariables()[portName]; ok {
			return sv.DataType, nil
		}
		for _, p := range cont.InputPorts() {
			if p.Name == portName {
				return p.DataType, nil
			}
		}
		return "", primitives.NewStructuralError(primitives.KindUnknownReference, "AddDataFlow", "no input port "+portName+" on container")
	}
	child, ok := cont.ChildStates()[stateID]
	if !ok {
		return "", primitives.NewStructuralError(primitives.KindUnknownReference, "AddDataFlow", "no child "+stateID)
	}
	for _, p := range child.OutputPorts() {
		if p.Name == portName {
			return p.DataType, nil
		}
	}
	return "", primitives.NewStructuralError(primitives.KindUnknownReference, "AddDataFlow", "no output port "+portName+" on "+stateID)
}

func resolveInputPortType(cont Container, stateID, portName string) (primitives.DataType, error) {
	if stateID == "" {
		if sv, ok := cont.ScopedVariables()[portName]; ok {
			return sv.DataType, nil
		}
		for _, p := range cont.OutputPorts() {
			if p.Name == portName {
				return p.DataType, nil
			}
		}
		return "", primitives.NewStructuralError(primitives.KindUnknownReference, "AddDataFlow", "no output port "+portName+" on container")
	}
	child, ok := cont.ChildStates()[stateID]
	if !ok {
		return "", primitives.NewStructuralError(primitives.KindUnknownReference, "AddDataFlow", "no child "+stateID)
	}
	for _, p := range child.InputPorts() {
		if p.Name == portName {
			return p.DataType, nil
		}
	}
	return "", primitives.NewStructuralError(primitives.KindUnknownReference, "AddDataFlow", "no input port "+portName+" on "+stateID)
}

// AddScopedVariable adds a scoped variable to the container at path.
func (m *Machine) AddScopedVariable(path string, v primitives.ScopedVariable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(path)
	if err != nil {
		return err
	}
	cont, ok := s.(Container)
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "AddScopedVariable", path+" is not a container")
	}
	if err := v.Validate(); err != nil {
		return err
	}
	vars := cont.ScopedVariables()
	if _, dup := vars[v.Name]; dup {
		return primitives.NewStructuralError(primitives.KindDuplicateName, "AddScopedVariable", "scoped variable "+v.Name+" already exists on "+path)
	}
	vars[v.Name] = v
	cont.SetScopedVariables(vars)
	cont.SetScopedValue(v.Name, v.DefaultValue)
	m.bus.Emit(Change{Kind: EventStructural, Subject: path, Property: "scopedVariable", After: v.Name})
	return nil
}

// RemoveScopedVariable removes a scoped variable by name.
func (m *Machine) RemoveScopedVariable(path, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.resolveLocked(path)
	if err != nil {
		return err
	}
	cont, ok := s.(Container)
	if !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "RemoveScopedVariable", path+" is not a container")
	}
	vars := cont.ScopedVariables()
	if _, ok := vars[name]; !ok {
		return primitives.NewStructuralError(primitives.KindUnknownReference, "RemoveScopedVariable", "no scoped variable "+name+" on "+path)
	}
	delete(vars, name)
	cont.SetScopedVariables(vars)
	m.bus.Emit(Change{Kind: EventStructural, Subject: path, Property: "scopedVariable", Before: name})
	return nil
}
