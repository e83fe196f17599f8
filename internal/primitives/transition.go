package primitives

// Transition is a parent-scoped edge from (from_state, from_outcome) to
// either a sibling state or one of the container's own outcomes.
//
// FromState/FromOutcome name the child and the outcome id it just finished
// with. ToState == "" means the target is the container's own outcome,
// named by ToOutcome; ToState != "" means "continue with this sibling",
// started fresh, and ToOutcome is unused in that case.
type Transition struct {
	ID          string `json:"id" yaml:"id"`
	FromState   string `json:"fromState" yaml:"fromState"`
	FromOutcome int    `json:"fromOutcome" yaml:"fromOutcome"`
	ToState     string `json:"toState,omitempty" yaml:"toState,omitempty"`
	ToOutcome   int    `json:"toOutcome,omitempty" yaml:"toOutcome,omitempty"`
}

// TargetsParentOutcome reports whether this transition's target is one of
// the container's own outcomes rather than a sibling state.
func (t Transition) TargetsParentOutcome() bool {
	return t.ToState == ""
}
