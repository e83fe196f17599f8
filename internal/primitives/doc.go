// Package primitives defines the foundational data structures shared by the
// state-machine engine: identifiers, typed values, data ports, outcomes,
// transitions, data-flows, scoped variables and the structural error taxonomy.
//
// Everything in this package is plain data plus validation; it owns no
// goroutines and blocks on nothing. The runtime behavior that acts on these
// types (the state tree, the engine, the concurrency coordinator) lives in
// internal/core.
package primitives
