package core

// RecursivelyPreempt sets the preempted latch on s and, if s is a container,
// on every descendant, so a losing branch of a preemptive region (or an
// engine-level stop) unblocks any leaf currently parked in PreemptiveWait or
// WaitInterrupted anywhere under it.
func RecursivelyPreempt(s State) {
	s.Latches().SetPreempted()
	if cont, ok := s.(Container); ok {
		for _, child := range cont.ChildStates() {
			RecursivelyPreempt(child)
		}
	}
}

// RecursivelySetPaused marks s and its whole subtree paused and not
// started, so any leaf blocked in WaitUnpaused stays blocked until resume.
func RecursivelySetPaused(s State) {
	s.Latches().SetPaused()
	s.Latches().ClearStarted()
	if cont, ok := s.(Container); ok {
		for _, child := range cont.ChildStates() {
			RecursivelySetPaused(child)
		}
	}
}

// RecursivelySetResumed clears paused and re-arms started on s and its
// whole subtree, unblocking anything parked in WaitUnpaused.
func RecursivelySetResumed(s State) {
	s.Latches().ClearPaused()
	s.Latches().SetStarted()
	if cont, ok := s.(Container); ok {
		for _, child := range cont.ChildStates() {
			RecursivelySetResumed(child)
		}
	}
}
