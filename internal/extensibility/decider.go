package extensibility

import (
	"context"

	"github.com/comalice/rafcore/internal/core"
	"github.com/comalice/rafcore/internal/primitives"
)

// AllSucceeded is a ready-made decider leaf for a barrier-concurrency
// state: it reads the "siblingOutcomes" input the runner populates and
// returns successOutcome only if every sibling
// finished with a non-negative outcome, else OutcomeAborted.
func AllSucceeded(successOutcome int) core.LeafProcedure {
	return func(_ context.Context, _ *core.ExecutionContext, s *core.ExecutionState) (int, error) {
		raw, ok := s.InputData()["siblingOutcomes"]
		if !ok || raw.Type != primitives.TypeMap {
			return primitives.OutcomeAborted, nil
		}
		for _, v := range raw.Map {
			if v.Int < 0 {
				return primitives.OutcomeAborted, nil
			}
		}
		return successOutcome, nil
	}
}

// AnySucceeded is a decider leaf that succeeds if at least one sibling
// finished with a non-negative outcome.
func AnySucceeded(successOutcome int) core.LeafProcedure {
	return func(_ context.Context, _ *core.ExecutionContext, s *core.ExecutionState) (int, error) {
		raw, ok := s.InputData()["siblingOutcomes"]
		if !ok || raw.Type != primitives.TypeMap {
			return primitives.OutcomeAborted, nil
		}
		for _, v := range raw.Map {
			if v.Int >= 0 {
				return successOutcome, nil
			}
		}
		return primitives.OutcomeAborted, nil
	}
}
