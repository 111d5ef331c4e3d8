package machtest

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"machtest/harness"
)

// A Response is the result of running a test.
type Response interface {
	// Response returns true if all sampled sequences passed, false otherwise.
	// The string is a formatted description of the result. For a failure it
	// contains the minimal failing sequence and the nature of the failure.
	Response() (bool, string)
}

// A FailureResponse is a Response describing a failing sequence.
//
// It exposes the minimal failure record for external reporters.
type FailureResponse[S, T any] interface {
	Response

	// Record returns the shrunk failure: the minimal failing sequence, the
	// failing index within it and the failure kind.
	Record() *harness.FailureRecord[S, T]
}

type passResponse struct {
	samples int
}

func (pr passResponse) Response() (bool, string) {
	return true, fmt.Sprintf("All %v sampled sequences passed", pr.samples)
}

type failureResponse[S, T any] struct {
	rec     *harness.FailureRecord[S, T]
	samples int
}

func (fr failureResponse[S, T]) Response() (bool, string) {
	var buffer bytes.Buffer
	wrt := tabwriter.NewWriter(&buffer, 4, 4, 0, ' ', 0)
	fmt.Fprintf(wrt, "%v at step %v after %v samples: %v \nMinimal failing sequence: \n", fr.rec.Kind, fr.rec.Index, fr.samples, fr.rec.Err)
	for i, step := range fr.rec.Seq.Steps {
		fmt.Fprintf(wrt, "-> %v:\t%v \n", i, step.Transition)
	}
	wrt.Flush()
	return false, buffer.String()
}

func (fr failureResponse[S, T]) Record() *harness.FailureRecord[S, T] {
	return fr.rec
}
