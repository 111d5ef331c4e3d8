package machtest

import (
	"io"
	"log"
	"time"

	"github.com/leanovate/gopter"

	"machtest/config"
	"machtest/generator"
	"machtest/harness"
	"machtest/shrinker"
	"machtest/statemachine"
)

// Default number of sequences sampled per run.
const DefaultSampleCount = 100

// Prepare a test with initial configuration.
//
// Binds the reference state machine m to the implementation under test via
// the binding. See the TestOption constructors for a full overview of
// possible options. Default values will be used if no value is provided.
//
// Prepare panics on a malformed configuration, since that is a usage error
// and not a test failure.
func Prepare[S, T, I any](m statemachine.StateMachine[S, T], binding harness.Binding[S, T, I], opts ...TestOption) Test[S, T, I] {
	var (
		// Bounds on the length of generated sequences
		minLength = generator.DefaultMinLength
		maxLength = generator.DefaultMaxLength

		// Number of sampling attempts per step before a sequence is cut short
		retryBudget = generator.DefaultRetryBudget

		// Number of sequences sampled before declaring the test passed
		samples = DefaultSampleCount

		// Seed of the randomness source
		seed = time.Now().UnixNano()

		// Number of value-shrink candidates tried per step position
		maxShrinkCount = shrinker.DefaultMaxShrinkCount

		export []io.Writer
	)

	for _, opt := range opts {
		switch t := opt.(type) {
		case config.MinLengthOption:
			minLength = t.Length
		case config.MaxLengthOption:
			maxLength = t.Length
		case config.RetryBudgetOption:
			retryBudget = t.Budget
		case config.SampleCountOption:
			samples = t.Samples
		case config.SeedOption:
			seed = t.Seed
		case config.MaxShrinkCountOption:
			maxShrinkCount = t.Count
		case config.ExportOption:
			export = append(export, t.W)
		}
	}

	if minLength < 0 || maxLength < minLength {
		log.Panicf("machtest: Invalid sequence length range [%v, %v]", minLength, maxLength)
	}
	if retryBudget < 1 {
		log.Panicf("machtest: Retry budget must be at least 1. Got %v", retryBudget)
	}
	if samples < 1 {
		log.Panicf("machtest: Sample count must be at least 1. Got %v", samples)
	}

	h := harness.New(binding)
	return Test[S, T, I]{
		gen: generator.New(m, minLength, maxLength, retryBudget),
		h:   h,
		shr: shrinker.New[S, T](m, h, maxShrinkCount),

		samples:        samples,
		seed:           seed,
		maxShrinkCount: maxShrinkCount,
		export:         export,
	}
}

// Stores the configured test.
//
// Can be used to run the same test multiple times. Each call to Run samples
// fresh sequences and owns its implementation instances exclusively.
type Test[S, T, I any] struct {
	gen *generator.Generator[S, T]
	h   *harness.Harness[S, T, I]
	shr *shrinker.Shrinker[S, T]

	samples        int
	seed           int64
	maxShrinkCount int
	export         []io.Writer
}

// Run samples sequences, executes each against the model and the
// implementation in lockstep, and stops at the first failure.
//
// A failing sequence is shrunk to a locally minimal failing sequence before
// it is reported. Returns a Response that is true if all sampled sequences
// passed; a failing Response additionally implements FailureResponse.
func (t Test[S, T, I]) Run() Response {
	params := gopter.DefaultGenParameters().CloneWithSeed(t.seed)
	params.MaxShrinkCount = t.maxShrinkCount

	for i := 0; i < t.samples; i++ {
		seq := t.gen.Generate(params)
		rec := t.h.Run(seq)
		if rec == nil {
			continue
		}
		resp := failureResponse[S, T]{
			rec:     t.shr.Minimize(rec),
			samples: i + 1,
		}
		t.exportResponse(resp)
		return resp
	}

	resp := passResponse{samples: t.samples}
	t.exportResponse(resp)
	return resp
}

func (t Test[S, T, I]) exportResponse(resp Response) {
	if len(t.export) == 0 {
		return
	}
	_, out := resp.Response()
	for _, w := range t.export {
		io.WriteString(w, out)
	}
}

// A TestOption is used to configure a prepared test.
type TestOption interface {
	// noop method
	TestOpt()
}

// Configure the minimum length of generated sequences.
//
// Default value is 1.
func MinLength(length int) TestOption {
	return config.MinLengthOption{Length: length}
}

// Configure the maximum length of generated sequences.
//
// Default value is 50. Sequences may still come out shorter when the retry
// budget of a step is exhausted.
func MaxLength(length int) TestOption {
	return config.MaxLengthOption{Length: length}
}

// Configure the number of sampling attempts per step.
//
// When no precondition-satisfying transition is found within the budget,
// generation of that sequence stops early. Default value is 100.
func RetryBudget(budget int) TestOption {
	return config.RetryBudgetOption{Budget: budget}
}

// Configure the number of sequences sampled per run.
//
// Default value is 100.
func SampleCount(samples int) TestOption {
	return config.SampleCountOption{Samples: samples}
}

// Configure the seed of the randomness source, making the run reproducible.
//
// Default value is the current time.
func Seed(seed int64) TestOption {
	return config.SeedOption{Seed: seed}
}

// Configure the number of value-shrink candidates tried per step position
// while minimizing a failing sequence.
//
// Default value is 1000.
func MaxShrinkCount(count int) TestOption {
	return config.MaxShrinkCountOption{Count: count}
}

// Add a writer that the formatted result will be exported to.
//
// Can be called multiple times. Default value is no writers.
func Export(w io.Writer) TestOption {
	return config.ExportOption{W: w}
}
