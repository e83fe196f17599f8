// Package extensibility provides default and decorator implementations of
// the pluggable interfaces internal/core declares: LeafRunner for Execution
// states, and the library resolver consulted by library-reference states.
package extensibility

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comalice/rafcore/internal/core"
)

// DefaultLeafRunner wraps a raw LeafProcedure, recovering a panic into an
// execution error so one misbehaving leaf cannot take down the whole
// engine goroutine tree.
type DefaultLeafRunner struct {
	Proc core.LeafProcedure
}

func (d DefaultLeafRunner) Run(ctx context.Context, ec *core.ExecutionContext, s *core.ExecutionState) (outcome int, err error) {
	if d.Proc == nil {
		return -1, fmt.Errorf("state %s has no leaf procedure", s.StateID())
	}
	defer func() {
		if r := recover(); r != nil {
			outcome, err = -1, fmt.Errorf("leaf procedure panicked: %v", r)
		}
	}()
	return d.Proc(ctx, ec, s)
}

// LoggingLeafRunner wraps an inner LeafRunner, logging entry, exit and
// duration around each call.
type LoggingLeafRunner struct {
	inner core.LeafRunner
}

func NewLoggingLeafRunner(inner core.LeafRunner) *LoggingLeafRunner {
	return &LoggingLeafRunner{inner: inner}
}

func (r *LoggingLeafRunner) Run(ctx context.Context, ec *core.ExecutionContext, s *core.ExecutionState) (int, error) {
	log.Printf("LOG: entering state %s (%s)", s.StateName(), s.StateID())
	start := time.Now()
	outcome, err := r.inner.Run(ctx, ec, s)
	log.Printf("LOG: state %s finished outcome=%d in %v: %v", s.StateName(), outcome, time.Since(start), err)
	return outcome, err
}

// AsLeafProcedure adapts a LeafRunner back into the core.LeafProcedure
// function type an ExecutionState.Leaf field expects, so a wrapped runner
// can be installed on a state without core knowing about the wrapper.
func AsLeafProcedure(r core.LeafRunner) core.LeafProcedure {
	return func(ctx context.Context, ec *core.ExecutionContext, s *core.ExecutionState) (int, error) {
		return r.Run(ctx, ec, s)
	}
}
