package generator

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"

	"machtest/statemachine"
)

// counterMachine bounds an integer state to [0, limit] with increment and
// decrement transitions represented as deltas.
func counterMachine(limit int) statemachine.StateMachine[int, int] {
	return statemachine.Funcs[int, int]{
		InitialStateFunc: func(*gopter.GenParameters) int { return 0 },
		TransitionsFunc: func(int) gopter.Gen {
			return gen.OneConstOf(1, -1)
		},
		PreconditionFunc: func(state, delta int) bool {
			next := state + delta
			return next >= 0 && next <= limit
		},
		ApplyFunc: func(state, delta int) int { return state + delta },
	}
}

func params(seed int64) *gopter.GenParameters {
	return gopter.DefaultGenParameters().CloneWithSeed(seed)
}

func TestGeneratedSequencesAreChainValid(t *testing.T) {
	m := counterMachine(5)
	g := New(m, 1, 20, 100)

	for seed := int64(0); seed < 20; seed++ {
		seq := g.Generate(params(seed))

		state := seq.Initial
		for i, step := range seq.Steps {
			if step.State != state {
				t.Errorf("Seed %v: stored state %v at step %v does not match recomputation %v", seed, step.State, i, state)
			}
			if !m.Precondition(state, step.Transition) {
				t.Errorf("Seed %v: precondition does not hold at step %v", seed, i)
			}
			state = m.Apply(state, step.Transition)
		}
		if seq.Final != state {
			t.Errorf("Seed %v: final state %v does not match recomputation %v", seed, seq.Final, state)
		}
	}
}

func TestLengthWithinConfiguredRange(t *testing.T) {
	// Preconditions always hold, so no truncation can occur.
	m := statemachine.Funcs[int, int]{
		InitialStateFunc: func(*gopter.GenParameters) int { return 0 },
		TransitionsFunc:  func(int) gopter.Gen { return gen.Const(1) },
		PreconditionFunc: func(int, int) bool { return true },
		ApplyFunc:        func(state, delta int) int { return state + delta },
	}
	g := New[int, int](m, 5, 10, 100)

	for seed := int64(0); seed < 20; seed++ {
		seq := g.Generate(params(seed))
		if seq.Len() < 5 || seq.Len() > 10 {
			t.Errorf("Seed %v: sequence length %v outside [5, 10]", seed, seq.Len())
		}
	}
}

func TestRetryBudgetTruncatesInsteadOfLooping(t *testing.T) {
	// The strategy generates a valid transition 1% of the time. With a
	// budget of 3 attempts per step almost every sequence is cut short.
	m := statemachine.Funcs[int, int]{
		InitialStateFunc: func(*gopter.GenParameters) int { return 0 },
		TransitionsFunc:  func(int) gopter.Gen { return gen.IntRange(0, 99) },
		PreconditionFunc: func(state, transition int) bool { return transition == 0 },
		ApplyFunc:        func(state, transition int) int { return state },
	}
	g := New[int, int](m, 50, 50, 3)

	truncated := 0
	for seed := int64(0); seed < 50; seed++ {
		seq := g.Generate(params(seed))
		if seq.Len() > 50 {
			t.Errorf("Seed %v: sequence length %v exceeds the configured maximum", seed, seq.Len())
		}
		if seq.Len() < 50 {
			truncated++
		}
		for i, step := range seq.Steps {
			if step.Transition != 0 {
				t.Errorf("Seed %v: step %v does not satisfy the precondition", seed, i)
			}
		}
	}
	if truncated < 25 {
		t.Errorf("Expected most sequences to be truncated early. Got %v of 50", truncated)
	}
}

func TestGenerationIsDeterministicForSeed(t *testing.T) {
	m := counterMachine(5)
	g := New(m, 1, 20, 100)

	a := g.Generate(params(42))
	b := g.Generate(params(42))

	if a.Len() != b.Len() {
		t.Fatalf("Sequences generated from the same seed differ in length: %v and %v", a.Len(), b.Len())
	}
	for i := range a.Steps {
		if a.Steps[i].Transition != b.Steps[i].Transition {
			t.Errorf("Sequences generated from the same seed differ at step %v", i)
		}
	}
}

func TestWrongTypedStrategyIsFiltered(t *testing.T) {
	// A strategy producing values of the wrong type can never satisfy a
	// step, so generation stops immediately instead of looping.
	m := statemachine.Funcs[int, int]{
		InitialStateFunc: func(*gopter.GenParameters) int { return 0 },
		TransitionsFunc:  func(int) gopter.Gen { return gen.Const("not a transition") },
		PreconditionFunc: func(int, int) bool { return true },
		ApplyFunc:        func(state, transition int) int { return state },
	}
	g := New[int, int](m, 5, 5, 10)

	seq := g.Generate(params(0))
	if seq.Len() != 0 {
		t.Errorf("Expected an empty sequence. Got %v steps", seq.Len())
	}
}
