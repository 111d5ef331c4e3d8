package sequence

import (
	"fmt"
	"strings"

	"github.com/leanovate/gopter"
	"golang.org/x/exp/slices"

	"machtest/statemachine"
)

// A Step pairs the abstract state before a transition with the transition
// itself. It is the minimal unit the generator produces and the shrinker
// edits.
type Step[S, T any] struct {
	// State is the abstract state before the transition.
	State S
	// Transition is the operation requested from State.
	Transition T
	// Shrinker produces smaller variants of Transition. Taken from the
	// generator result that produced the transition. May be nil if the
	// generator attached no shrink capability.
	Shrinker gopter.Shrinker
}

// A Sequence is an ordered, precondition-valid chain of steps together with
// the model states they produce.
//
// The chain invariant holds for every sequence handed out by this package:
// for every i, Precondition(Steps[i].State, Steps[i].Transition) holds and
// the state stored at i+1 is exactly Apply(Steps[i].State, Steps[i].Transition).
// Candidate edits (Truncate, RemoveRange, ReplaceTransition) recompute the
// downstream chain and refuse to produce a sequence that would break it.
type Sequence[S, T any] struct {
	// Initial is the state before the first step.
	Initial S
	// Steps holds the transitions and their states-before.
	Steps []Step[S, T]
	// Final is the state after the last step. Equal to Initial if the
	// sequence is empty.
	Final S
}

// New creates an empty sequence starting at the provided initial state.
func New[S, T any](initial S) *Sequence[S, T] {
	return &Sequence[S, T]{
		Initial: initial,
		Steps:   []Step[S, T]{},
		Final:   initial,
	}
}

// Len returns the number of steps in the sequence.
func (s *Sequence[S, T]) Len() int {
	return len(s.Steps)
}

// StateBefore returns the state before step i. i may equal Len(), in which
// case the final state is returned.
func (s *Sequence[S, T]) StateBefore(i int) S {
	if i >= len(s.Steps) {
		return s.Final
	}
	return s.Steps[i].State
}

// StateAfter returns the state after step i.
func (s *Sequence[S, T]) StateAfter(i int) S {
	return s.StateBefore(i + 1)
}

// Append adds a step executing the provided transition from the current final
// state.
//
// The caller must have checked that the precondition holds for the final
// state and the transition. Append advances the final state with Apply.
func (s *Sequence[S, T]) Append(m statemachine.StateMachine[S, T], transition T, shrinker gopter.Shrinker) {
	s.Steps = append(s.Steps, Step[S, T]{
		State:      s.Final,
		Transition: transition,
		Shrinker:   shrinker,
	})
	s.Final = m.Apply(s.Final, transition)
}

// Truncate returns a copy of the sequence keeping only the first n steps.
//
// A prefix of a valid chain is itself a valid chain, so truncation can never
// fail.
func (s *Sequence[S, T]) Truncate(n int) *Sequence[S, T] {
	if n > len(s.Steps) {
		n = len(s.Steps)
	}
	return &Sequence[S, T]{
		Initial: s.Initial,
		Steps:   slices.Clone(s.Steps[:n]),
		Final:   s.StateBefore(n),
	}
}

// RemoveRange returns a copy of the sequence with the steps in
// [start, start+count) removed and the downstream chain recomputed.
//
// Returns false if the recomputed chain violates the precondition of any
// retained step. Such a candidate must not be executed.
func (s *Sequence[S, T]) RemoveRange(m statemachine.StateMachine[S, T], start, count int) (*Sequence[S, T], bool) {
	if start < 0 || count < 1 || start+count > len(s.Steps) {
		return nil, false
	}
	steps := make([]Step[S, T], 0, len(s.Steps)-count)
	steps = append(steps, s.Steps[:start]...)
	steps = append(steps, s.Steps[start+count:]...)
	return rechain(m, s.Initial, steps)
}

// ReplaceTransition returns a copy of the sequence with the transition at
// step i replaced and the downstream chain recomputed. The shrinker of the
// original step is retained.
//
// Returns false if the replacement or any retained downstream step violates
// its precondition against the recomputed chain.
func (s *Sequence[S, T]) ReplaceTransition(m statemachine.StateMachine[S, T], i int, transition T) (*Sequence[S, T], bool) {
	if i < 0 || i >= len(s.Steps) {
		return nil, false
	}
	steps := slices.Clone(s.Steps)
	steps[i].Transition = transition
	return rechain(m, s.Initial, steps)
}

// Validate checks the chain invariant of the sequence against the machine by
// recomputing every state from the initial state.
func (s *Sequence[S, T]) Validate(m statemachine.StateMachine[S, T]) bool {
	state := s.Initial
	for i := range s.Steps {
		if !m.Precondition(state, s.Steps[i].Transition) {
			return false
		}
		state = m.Apply(state, s.Steps[i].Transition)
	}
	return true
}

// String renders the transitions of the sequence, one per line.
func (s *Sequence[S, T]) String() string {
	out := strings.Builder{}
	for i, step := range s.Steps {
		fmt.Fprintf(&out, "%v: %v\n", i, step.Transition)
	}
	return out.String()
}

// rechain rebuilds the state chain of the provided steps from the initial
// state, rewriting each stored state-before. Returns false if some step's
// precondition is rejected along the recomputed chain.
func rechain[S, T any](m statemachine.StateMachine[S, T], initial S, steps []Step[S, T]) (*Sequence[S, T], bool) {
	state := initial
	for i := range steps {
		if !m.Precondition(state, steps[i].Transition) {
			return nil, false
		}
		steps[i].State = state
		state = m.Apply(state, steps[i].Transition)
	}
	return &Sequence[S, T]{
		Initial: initial,
		Steps:   steps,
		Final:   state,
	}, true
}
