package core

import "context"

// LeafProcedure is the body of an Execution state: read inputs from ec and
// state, do work, write outputs onto state, return the outcome id the state
// finished with. Returning a non-nil error is equivalent to returning
// primitives.OutcomeAborted after the runner has copied err's message onto
// the state's "error" output port.
type LeafProcedure func(ctx context.Context, ec *ExecutionContext, state *ExecutionState) (int, error)

// LeafRunner invokes a LeafProcedure. The indirection lets callers wrap
// execution with logging, tracing or panic recovery without changing the
// procedure's own signature.
type LeafRunner interface {
	Run(ctx context.Context, ec *ExecutionContext, state *ExecutionState) (int, error)
}

// LeafRunnerFunc adapts a plain function to LeafRunner.
type LeafRunnerFunc func(ctx context.Context, ec *ExecutionContext, state *ExecutionState) (int, error)

func (f LeafRunnerFunc) Run(ctx context.Context, ec *ExecutionContext, state *ExecutionState) (int, error) {
	return f(ctx, ec, state)
}
