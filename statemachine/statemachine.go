package statemachine

import "github.com/leanovate/gopter"

// A StateMachine is the abstract model of the system under test.
//
// It describes the legal states and transitions of the system, independent of
// any concrete implementation. States are plain values and are never mutated
// in place: Apply returns a new state and leaves its argument untouched.
// This is what allows the shrinker to recompute any suffix of a state chain
// independently when evaluating candidate sequences.
//
// S is the type of the abstract state. T is the type of a transition.
type StateMachine[S, T any] interface {
	// InitialState produces the starting abstract state.
	//
	// The state may be drawn from the provided generation parameters, but must
	// be deterministic for a given parameter state.
	InitialState(params *gopter.GenParameters) S

	// Transitions returns a generator for candidate transitions from the
	// provided state. The generator may depend on the state contents, e.g.
	// only generating removals of keys that are known to exist.
	//
	// The generator is allowed to over-generate: a sampled transition is not
	// guaranteed to satisfy Precondition and will be filtered by the caller.
	Transitions(state S) gopter.Gen

	// Precondition reports whether the transition is legal in the state.
	// Must be a pure predicate.
	Precondition(state S, transition T) bool

	// Apply computes the state following the transition.
	//
	// Apply is only ever invoked on pairs for which Precondition holds. It
	// must be a pure function and must not observe the implementation under
	// test.
	Apply(state S, transition T) S
}

// Funcs assembles a StateMachine from individual functions.
//
// Useful for one-off models in tests where a named type would be noise.
type Funcs[S, T any] struct {
	InitialStateFunc func(*gopter.GenParameters) S
	TransitionsFunc  func(S) gopter.Gen
	PreconditionFunc func(S, T) bool
	ApplyFunc        func(S, T) S
}

func (f Funcs[S, T]) InitialState(params *gopter.GenParameters) S {
	return f.InitialStateFunc(params)
}

func (f Funcs[S, T]) Transitions(state S) gopter.Gen {
	return f.TransitionsFunc(state)
}

func (f Funcs[S, T]) Precondition(state S, transition T) bool {
	return f.PreconditionFunc(state, transition)
}

func (f Funcs[S, T]) Apply(state S, transition T) S {
	return f.ApplyFunc(state, transition)
}
