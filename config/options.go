package config

import "io"

// Option structs consumed by the root package when preparing a test.
// Each implements the marker method of the option interface it belongs to.

// Configures the minimum length of generated sequences.
type MinLengthOption struct{ Length int }

func (o MinLengthOption) TestOpt() {}

// Configures the maximum length of generated sequences.
type MaxLengthOption struct{ Length int }

func (o MaxLengthOption) TestOpt() {}

// Configures the number of sampling attempts per step before generation of a
// sequence is cut short.
type RetryBudgetOption struct{ Budget int }

func (o RetryBudgetOption) TestOpt() {}

// Configures the number of sequences sampled per run.
type SampleCountOption struct{ Samples int }

func (o SampleCountOption) TestOpt() {}

// Configures the seed of the randomness source, making a run reproducible.
type SeedOption struct{ Seed int64 }

func (o SeedOption) TestOpt() {}

// Configures the number of value-shrink candidates tried per step position.
type MaxShrinkCountOption struct{ Count int }

func (o MaxShrinkCountOption) TestOpt() {}

// Configures a writer that the formatted result will be exported to.
// Can be applied multiple times to add multiple writers.
type ExportOption struct{ W io.Writer }

func (o ExportOption) TestOpt() {}
