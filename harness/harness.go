package harness

import (
	"fmt"
	"runtime/debug"

	"machtest/sequence"
)

// A Binding connects the abstract model to a concrete implementation under
// test.
//
// S is the model state type, T the transition type and I the implementation
// instance type. An instance is owned by exactly one harness run and is never
// shared across sequences or shrink candidates.
type Binding[S, T, I any] interface {
	// Init constructs a fresh implementation instance consistent with the
	// model's initial state.
	Init(initial S) (I, error)

	// Apply performs the concrete operation described by the transition.
	//
	// The instance may be mutated or replaced; ownership transfers to the
	// returned value and the harness never retains the argument afterwards.
	Apply(instance I, before S, transition T) (I, error)

	// Check asserts that implementation-observable properties are consistent
	// with the model state after the step. A non-nil error is an invariant
	// violation, distinct from a fault.
	Check(instance I, after S) error

	// Teardown releases any resources held by the instance. Called exactly
	// once per instance, on every exit path.
	Teardown(instance I)
}

// BindingFuncs assembles a Binding from individual functions.
//
// Nil CheckFunc and TeardownFunc are allowed and act as no-ops.
type BindingFuncs[S, T, I any] struct {
	InitFunc     func(S) (I, error)
	ApplyFunc    func(I, S, T) (I, error)
	CheckFunc    func(I, S) error
	TeardownFunc func(I)
}

func (b BindingFuncs[S, T, I]) Init(initial S) (I, error) {
	return b.InitFunc(initial)
}

func (b BindingFuncs[S, T, I]) Apply(instance I, before S, transition T) (I, error) {
	return b.ApplyFunc(instance, before, transition)
}

func (b BindingFuncs[S, T, I]) Check(instance I, after S) error {
	if b.CheckFunc == nil {
		return nil
	}
	return b.CheckFunc(instance, after)
}

func (b BindingFuncs[S, T, I]) Teardown(instance I) {
	if b.TeardownFunc != nil {
		b.TeardownFunc(instance)
	}
}

// A Harness executes sequences against a binding, walking the model states
// and the implementation in lockstep and reporting the first divergence.
type Harness[S, T, I any] struct {
	binding Binding[S, T, I]
}

// New creates a Harness for the provided binding.
func New[S, T, I any](binding Binding[S, T, I]) *Harness[S, T, I] {
	return &Harness[S, T, I]{binding: binding}
}

// Run executes the sequence against a freshly initialized implementation
// instance.
//
// For each step the transition is applied to the implementation and the
// invariants are checked against the model state after the step. On the
// first failure execution stops and a FailureRecord for that step is
// returned. Returns nil if the whole sequence passes.
//
// Panics raised by the binding are captured and reported as Fault failures.
// Teardown runs on every exit path.
func (h *Harness[S, T, I]) Run(seq *sequence.Sequence[S, T]) *FailureRecord[S, T] {
	instance, err := h.binding.Init(seq.Initial)
	if err != nil {
		return &FailureRecord[S, T]{
			Index: 0,
			Kind:  Fault,
			Err:   fmt.Errorf("harness: init failed: %w", err),
			Seq:   seq.Truncate(0),
		}
	}
	// The instance is replaced as steps are applied. Tear down whichever
	// instance is current when the run exits.
	defer func() {
		h.binding.Teardown(instance)
	}()

	for i := 0; i < seq.Len(); i++ {
		step := seq.Steps[i]

		next, err := h.applyStep(instance, step)
		instance = next
		if err != nil {
			return &FailureRecord[S, T]{
				Index: i,
				Kind:  Fault,
				Err:   err,
				Seq:   seq.Truncate(i + 1),
			}
		}

		kind, err := h.checkStep(instance, seq.StateAfter(i))
		if err != nil {
			return &FailureRecord[S, T]{
				Index: i,
				Kind:  kind,
				Err:   err,
				Seq:   seq.Truncate(i + 1),
			}
		}
	}
	return nil
}

// applyStep applies a single transition to the implementation, converting a
// panic in the binding into an error. If the binding panics the instance
// passed in remains the current one.
func (h *Harness[S, T, I]) applyStep(instance I, step sequence.Step[S, T]) (next I, err error) {
	next = instance
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("harness: binding panicked applying %v: %v\nStack Trace:\n%s", step.Transition, p, debug.Stack())
		}
	}()
	return h.binding.Apply(instance, step.State, step.Transition)
}

// checkStep checks the invariants after a step, converting a panic in the
// binding into a Fault. An error returned by the binding is an Invariant
// failure.
func (h *Harness[S, T, I]) checkStep(instance I, after S) (kind Kind, err error) {
	defer func() {
		if p := recover(); p != nil {
			kind = Fault
			err = fmt.Errorf("harness: binding panicked checking invariants: %v\nStack Trace:\n%s", p, debug.Stack())
		}
	}()
	return Invariant, h.binding.Check(instance, after)
}
