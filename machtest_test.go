package machtest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"

	"machtest/harness"
	"machtest/statemachine"
)

// The fixture models a register holding a single integer. Writes store a
// value, resets clear it.
var registerMachine = statemachine.Funcs[int, int]{
	InitialStateFunc: func(*gopter.GenParameters) int { return 0 },
	TransitionsFunc:  func(int) gopter.Gen { return gen.IntRange(0, 20) },
	PreconditionFunc: func(int, int) bool { return true },
	ApplyFunc:        func(state, write int) int { return write },
}

func registerBinding(breakAbove int) harness.Binding[int, int, *int] {
	return harness.BindingFuncs[int, int, *int]{
		InitFunc: func(initial int) (*int, error) {
			v := initial
			return &v, nil
		},
		ApplyFunc: func(r *int, before int, write int) (*int, error) {
			if write <= breakAbove {
				*r = write
			}
			return r, nil
		},
		CheckFunc: func(r *int, after int) error {
			if *r != after {
				return fmt.Errorf("register holds %v, model expects %v", *r, after)
			}
			return nil
		},
	}
}

func TestRunReportsAllPassed(t *testing.T) {
	test := Prepare[int, int, *int](
		registerMachine,
		registerBinding(20),
		Seed(7),
		SampleCount(25),
		MaxLength(15),
	)

	ok, desc := test.Run().Response()
	if !ok {
		t.Fatalf("Expected all sequences to pass. Got: \n%v", desc)
	}
	if !strings.Contains(desc, "25") {
		t.Errorf("Expected the sample count in the description. Got: %v", desc)
	}
}

func TestRunReportsMinimalFailure(t *testing.T) {
	// Writes above 10 are dropped by the implementation.
	test := Prepare[int, int, *int](
		registerMachine,
		registerBinding(10),
		Seed(7),
		SampleCount(100),
		MaxLength(15),
	)

	resp := test.Run()
	ok, desc := resp.Response()
	if ok {
		t.Fatalf("Expected a failure")
	}
	fresp, isFailure := resp.(FailureResponse[int, int])
	if !isFailure {
		t.Fatalf("Expected a failure response. Got %T", resp)
	}

	rec := fresp.Record()
	if rec.Kind != harness.Invariant {
		t.Errorf("Expected an invariant violation. Got %v", rec.Kind)
	}
	if rec.Seq.Len() != 1 {
		t.Fatalf("Expected a single dropped write. Got %v steps:\n%v", rec.Seq.Len(), rec.Seq)
	}
	// The write value itself shrinks to the smallest dropped one.
	if got := rec.Seq.Steps[0].Transition; got != 11 {
		t.Errorf("Expected the minimal dropped write 11. Got %v", got)
	}
	if !strings.Contains(desc, "Invariant violation") {
		t.Errorf("Expected the failure kind in the description. Got: %v", desc)
	}
}

func TestExportWritesResponse(t *testing.T) {
	var buffer bytes.Buffer
	test := Prepare[int, int, *int](
		registerMachine,
		registerBinding(20),
		Seed(7),
		SampleCount(10),
		Export(&buffer),
	)

	_, desc := test.Run().Response()
	if buffer.String() != desc {
		t.Errorf("Expected the exported output to match the response. Got: %v", buffer.String())
	}
}

func TestPrepareRejectsInvalidConfiguration(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected an invalid length range to panic")
		}
	}()
	Prepare[int, int, *int](
		registerMachine,
		registerBinding(20),
		MinLength(10),
		MaxLength(5),
	)
}
