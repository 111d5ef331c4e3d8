package shrinker

import (
	"golang.org/x/exp/slices"

	"machtest/harness"
	"machtest/sequence"
	"machtest/statemachine"
)

// DefaultMaxShrinkCount bounds the number of value-shrink candidates tried
// per step position.
const DefaultMaxShrinkCount = 1000

// A Runner re-executes candidate sequences and reports the first failing
// step. Satisfied by harness.Harness.
type Runner[S, T any] interface {
	Run(seq *sequence.Sequence[S, T]) *harness.FailureRecord[S, T]
}

// A Shrinker searches for a locally minimal failing sequence: one where no
// further single shrink move, when re-executed, still reproduces a failure.
//
// Move classes are tried in a fixed priority order: trailing truncation,
// removal of interior steps (largest blocks first), then shrinking of
// individual transition values. Every candidate is re-validated against the
// machine's preconditions before it is handed to the runner; a candidate
// whose recomputed chain breaks a retained precondition is silently skipped.
// Each accepted candidate becomes the new current best and the search
// restarts from the first move class against the new failing index.
type Shrinker[S, T any] struct {
	m      statemachine.StateMachine[S, T]
	runner Runner[S, T]

	maxShrinkCount int
}

// New creates a Shrinker for the provided machine.
//
// The runner re-executes candidates; each candidate run owns a fresh
// implementation instance. maxShrinkCount bounds value-shrink attempts per
// step position.
func New[S, T any](m statemachine.StateMachine[S, T], runner Runner[S, T], maxShrinkCount int) *Shrinker[S, T] {
	if maxShrinkCount <= 0 {
		maxShrinkCount = DefaultMaxShrinkCount
	}
	return &Shrinker[S, T]{
		m:      m,
		runner: runner,

		maxShrinkCount: maxShrinkCount,
	}
}

// Minimize shrinks the failing sequence captured by the record until no move
// in any class yields a strictly smaller failing sequence.
//
// The record's sequence is already truncated at the failing step, so trailing
// truncation is accepted up front. Minimize never returns a record whose
// sequence is longer than the input, and termination is guaranteed: every
// accepted move either shortens the sequence or spends a bounded per-position
// shrink budget.
//
// A candidate that previously failed may pass on re-execution if the binding
// behaves non-deterministically. That candidate is simply abandoned and the
// still-failing current best is kept.
func (s *Shrinker[S, T]) Minimize(rec *harness.FailureRecord[S, T]) *harness.FailureRecord[S, T] {
	cur := rec
	shrunk := make([]int, cur.Seq.Len())
	for {
		next, counts, ok := s.shrinkOnce(cur, shrunk)
		if !ok {
			return cur
		}
		cur, shrunk = next, counts
	}
}

// shrinkOnce tries all moves in priority order and returns the first
// accepted strictly smaller failing record, together with the updated
// per-position shrink counts. Returns false if no move was accepted.
func (s *Shrinker[S, T]) shrinkOnce(cur *harness.FailureRecord[S, T], shrunk []int) (*harness.FailureRecord[S, T], []int, bool) {
	n := cur.Seq.Len()

	// Interior deletions. Halving block sizes, sliding the window one
	// position at a time so that compensating step pairs at any offset can
	// be removed together.
	for block := (n + 1) / 2; block >= 1; block /= 2 {
		for start := 0; start+block <= n; start++ {
			cand, ok := cur.Seq.RemoveRange(s.m, start, block)
			if !ok {
				continue
			}
			rec := s.runner.Run(cand)
			if rec == nil {
				continue
			}
			counts := make([]int, 0, n-block)
			counts = append(counts, shrunk[:start]...)
			counts = append(counts, shrunk[start+block:]...)
			return rec, counts[:rec.Index+1], true
		}
	}

	// Per-transition value shrinking using the shrink capability attached at
	// generation time.
	for i := 0; i < n; i++ {
		step := cur.Seq.Steps[i]
		if step.Shrinker == nil || shrunk[i] >= s.maxShrinkCount {
			continue
		}
		shrink := step.Shrinker(step.Transition)
		for attempt := 0; attempt < s.maxShrinkCount; attempt++ {
			value, more := shrink()
			if !more {
				break
			}
			transition, ok := value.(T)
			if !ok {
				continue
			}
			cand, ok := cur.Seq.ReplaceTransition(s.m, i, transition)
			if !ok {
				continue
			}
			rec := s.runner.Run(cand)
			if rec == nil {
				continue
			}
			counts := slices.Clone(shrunk)
			counts[i]++
			return rec, counts[:rec.Index+1], true
		}
	}

	return nil, nil, false
}
