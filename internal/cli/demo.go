package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/rafcore/internal/core"
	"github.com/comalice/rafcore/internal/primitives"
)

// buildDemoMachine assembles a small three-stage pipeline: fetch -> process
// -> report, each a leaf state that sleeps briefly and logs, as a runnable
// illustration rather than a test fixture.
func buildDemoMachine() *core.Machine {
	fetch := core.NewExecutionState("fetch", "fetch", "fetch input data", demoStep("fetch", 150*time.Millisecond))
	process := core.NewExecutionState("process", "process", "transform the data", demoStep("process", 250*time.Millisecond))
	report := core.NewExecutionState("report", "report", "emit the result", demoStep("report", 100*time.Millisecond))

	root := core.NewHierarchyState("pipeline", "pipeline", "fetch, process, report")
	root.SetStartStateID("fetch")
	root.SetChildState(fetch.StateID(), fetch)
	root.SetChildState(process.StateID(), process)
	root.SetChildState(report.StateID(), report)
	root.SetTransitions([]primitives.Transition{
		{ID: "t1", FromState: "fetch", FromOutcome: 0, ToState: "process"},
		{ID: "t2", FromState: "process", FromOutcome: 0, ToState: "report"},
		{ID: "t3", FromState: "report", FromOutcome: 0, ToOutcome: 0},
	})

	return core.NewMachine(root)
}

func demoStep(label string, d time.Duration) core.LeafProcedure {
	return func(ctx context.Context, ec *core.ExecutionContext, s *core.ExecutionState) (int, error) {
		fmt.Printf("[demo] %s starting\n", label)
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return primitives.OutcomePreempted, ctx.Err()
		}
		fmt.Printf("[demo] %s done\n", label)
		return 0, nil
	}
}
