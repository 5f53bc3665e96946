package csp

import (
	"math/rand/v2"
	"time"
)

// StepCallback observes the search. It is invoked once per tentative
// assignment with snapshots of the committed assignment and the remaining
// pruned domains. Callbacks must not mutate either map; both are copies
// valid only for the duration of the call.
type StepCallback func(assigned map[string]Value, unassigned map[string][]Value)

// SolverConfig carries per-problem solver options.
// A nil field keeps the default behavior.
type SolverConfig struct {
	// Callback, when set, is scheduled after every tentative assignment.
	Callback StepCallback

	// TimeStep inserts a delay before each search step. Purely a
	// presentation aid for step-by-step visualization.
	TimeStep time.Duration

	// MaxSteps caps min-conflicts iterations.
	MaxSteps int

	// Rand drives min-conflicts. Supply a seeded source for reproducible
	// runs; when nil, each solve draws a fresh stream from the global
	// generator. The systematic solver never consumes randomness.
	Rand *rand.Rand
}

// DefaultSolverConfig returns the default configuration.
func DefaultSolverConfig() *SolverConfig {
	return &SolverConfig{
		MaxSteps: 1000,
	}
}

// rng returns the configured random source, or a fresh one.
func (c *SolverConfig) rng() *rand.Rand {
	if c != nil && c.Rand != nil {
		return c.Rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
