package harness

import "machtest/sequence"

// Kind classifies how a sequence failed.
type Kind int

const (
	// Invariant indicates that Check reported a mismatch between the
	// implementation and the model.
	Invariant Kind = iota
	// Fault indicates that the binding returned an error or panicked while
	// applying a transition or checking invariants.
	Fault
)

func (k Kind) String() string {
	switch k {
	case Invariant:
		return "Invariant violation"
	case Fault:
		return "Propagated fault"
	}
	return "Unknown failure"
}

// A FailureRecord identifies the first step at which a sequence failed.
//
// It carries the failing prefix of the sequence, so it is self-contained: the
// shrinker consumes the record as the thing to keep failing and external
// reporters can render it without the original sequence.
type FailureRecord[S, T any] struct {
	// Index of the failing step within Seq.
	Index int
	// Kind of the failure.
	Kind Kind
	// Err describes the failure. For a Fault caused by a panic it contains
	// the recovered value and a stack trace.
	Err error
	// Seq is the sequence prefix up to and including the failing step.
	Seq *sequence.Sequence[S, T]
}
