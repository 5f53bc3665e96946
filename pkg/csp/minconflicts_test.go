package csp

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededConfig(seed uint64) *SolverConfig {
	cfg := DefaultSolverConfig()
	cfg.Rand = rand.New(rand.NewPCG(seed, seed))
	return cfg
}

func TestMinConflictsNoConstraints(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B"}, IntRange(1, 3)))
	p.SetOptions(seededConfig(1))

	sol, ok, err := p.SolveWithMinConflicts(context.Background(), 10)
	require.NoError(t, err)
	require.True(t, ok, "a constraint-free assignment is already conflict-free")
	assert.Len(t, sol, 2)
}

func TestMinConflictsMapColoring(t *testing.T) {
	p := australiaMap(t)
	p.SetOptions(seededConfig(42))

	sol, ok, err := p.SolveWithMinConflicts(context.Background(), 10000)
	require.NoError(t, err)
	require.True(t, ok)

	// A returned assignment must satisfy every constraint.
	for _, a := range p.arcs {
		assert.True(t, callBinary(a.pred, sol[a.head], sol[a.tail]))
	}
	for name, v := range sol {
		assert.True(t, containsValue(p.Domain(name), v))
	}
}

func TestMinConflictsPigeonhole(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "C"}, IntRange(1, 2)))
	require.NoError(t, p.AddAllDifferent("A", "B", "C"))
	p.SetOptions(seededConfig(7))

	sol, ok, err := p.SolveWithMinConflicts(context.Background(), 500)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, sol)
}

func TestMinConflictsSeededReproducibility(t *testing.T) {
	run := func() Assignment {
		p := australiaMap(t)
		p.SetOptions(seededConfig(99))
		sol, ok, err := p.SolveWithMinConflicts(context.Background(), 10000)
		require.NoError(t, err)
		require.True(t, ok)
		return sol
	}
	assert.Equal(t, run(), run(), "identical seeds must walk identical trajectories")
}

func TestMinConflictsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := australiaMap(t)
	_, ok, err := p.SolveWithMinConflicts(ctx, 100)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
