package generator

import (
	"github.com/leanovate/gopter"

	"machtest/sequence"
	"machtest/statemachine"
)

// Default bounds used when no explicit configuration is provided.
const (
	DefaultMinLength   = 1
	DefaultMaxLength   = 50
	DefaultRetryBudget = 100
)

// A Generator builds precondition-valid sequences of transitions by
// repeatedly sampling the machine's transition strategy and filtering by
// precondition.
//
// Strategies are allowed to over-generate, so each step is resampled up to a
// bounded number of attempts. If the budget is exhausted the sequence is cut
// short. This is not an error: overly strict preconditions produce shorter
// sequences rather than infinite sampling loops, and all consumers tolerate
// sequences shorter than the configured maximum.
type Generator[S, T any] struct {
	m statemachine.StateMachine[S, T]

	minLength   int
	maxLength   int
	retryBudget int
}

// New creates a Generator for the provided machine.
//
// The length of each generated sequence is drawn uniformly from
// [minLength, maxLength]. retryBudget bounds the number of sampling attempts
// per step.
func New[S, T any](m statemachine.StateMachine[S, T], minLength, maxLength, retryBudget int) *Generator[S, T] {
	return &Generator[S, T]{
		m: m,

		minLength:   minLength,
		maxLength:   maxLength,
		retryBudget: retryBudget,
	}
}

// Generate builds a new sequence using the provided generation parameters as
// the source of randomness.
//
// The chain invariant holds for the result by construction: every step's
// precondition was checked against the state it is recorded with, and every
// state was computed by the machine's Apply.
func (g *Generator[S, T]) Generate(params *gopter.GenParameters) *sequence.Sequence[S, T] {
	length := g.minLength
	if g.maxLength > g.minLength {
		length += params.Rng.Intn(g.maxLength - g.minLength + 1)
	}

	seq := sequence.New[S, T](g.m.InitialState(params))
	for i := 0; i < length; i++ {
		transition, shrinker, ok := g.sample(params, seq.Final)
		if !ok {
			// Retry budget exhausted. Stop early with what was produced.
			break
		}
		seq.Append(g.m, transition, shrinker)
	}
	return seq
}

// sample draws transitions from the machine's strategy for the given state
// until one satisfies the precondition or the retry budget is exhausted.
func (g *Generator[S, T]) sample(params *gopter.GenParameters, state S) (T, gopter.Shrinker, bool) {
	var zero T
	gen := g.m.Transitions(state)
	for attempt := 0; attempt < g.retryBudget; attempt++ {
		result := gen(params)
		value, ok := result.Retrieve()
		if !ok {
			// The strategy's sieve rejected the draw. Counts against the
			// budget like a failed precondition.
			continue
		}
		transition, ok := value.(T)
		if !ok {
			continue
		}
		if !g.m.Precondition(state, transition) {
			continue
		}
		return transition, result.Shrinker, true
	}
	return zero, nil, false
}
