package csp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddVariable(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariable("A", IntRange(1, 3)))

	err := p.AddVariable("A", IntRange(1, 3))
	assert.ErrorIs(t, err, ErrDuplicateVariable)

	err = p.AddVariable("B", nil)
	assert.ErrorIs(t, err, ErrEmptyDomain)

	// Duplicates inside a supplied domain are tolerated.
	require.NoError(t, p.AddVariable("C", ValuesFromInts(1, 1, 2)))
	assert.Len(t, p.Domain("C"), 3)
}

func TestAddVariablesSharedDomain(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"X", "Y", "Z"}, IntRange(0, 1)))
	assert.Equal(t, []string{"X", "Y", "Z"}, p.VariableNames())
	assert.Equal(t, 3, p.VariableCount())

	// The shared domain must not alias between variables.
	dx := p.Domain("X")
	dx[0] = NewInt(99)
	assert.Equal(t, NewInt(0), p.Domain("X")[0], "Domain must return a copy")
}

func TestAddConstraintRouting(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "C"}, IntRange(1, 3)))

	t.Run("unknown variable", func(t *testing.T) {
		err := p.AddConstraint([]string{"A", "Nope"}, NotEqualBinary())
		assert.ErrorIs(t, err, ErrUnknownVariable)
	})

	t.Run("binary installs both arcs", func(t *testing.T) {
		q := p.Copy()
		require.NoError(t, q.AddConstraint([]string{"A", "B"}, NotEqualBinary()))
		assert.Len(t, q.arcs, 2)
		assert.Equal(t, 1, q.ConstraintCount())
	})

	t.Run("binary predicate on three variables", func(t *testing.T) {
		err := p.AddConstraint([]string{"A", "B", "C"}, NotEqualBinary())
		assert.ErrorIs(t, err, ErrArityMismatch)
	})

	t.Run("nary predicate on two variables", func(t *testing.T) {
		err := p.AddConstraint([]string{"A", "B"}, AllDifferent([]string{"A", "B"}))
		assert.ErrorIs(t, err, ErrArityMismatch)
	})

	t.Run("nary on one and on three variables", func(t *testing.T) {
		q := p.Copy()
		require.NoError(t, q.AddConstraint([]string{"A"}, InSet([]string{"A"}, IntRange(1, 2))))
		require.NoError(t, q.AddConstraint([]string{"A", "B", "C"}, AllDifferent([]string{"A", "B", "C"})))
		assert.Equal(t, 2, q.ConstraintCount())
	})

	t.Run("empty variable list", func(t *testing.T) {
		err := p.AddConstraint(nil, AllDifferent(nil))
		assert.ErrorIs(t, err, ErrArityMismatch)
	})
}

func TestReversedArcSwapsArguments(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B"}, IntRange(1, 3)))
	require.NoError(t, p.AddConstraint([]string{"A", "B"}, LessBinary()))

	fwd, rev := p.arcs[0], p.arcs[1]
	assert.Equal(t, "A", fwd.head)
	assert.Equal(t, "B", fwd.tail)
	assert.True(t, fwd.pred(NewInt(1), NewInt(2)))
	// Reversed arc sees (B value, A value) but must decide A < B.
	assert.Equal(t, "B", rev.head)
	assert.True(t, rev.pred(NewInt(2), NewInt(1)))
	assert.False(t, rev.pred(NewInt(1), NewInt(2)))
}

func TestCopyIsIndependent(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B"}, IntRange(1, 2)))
	require.NoError(t, p.AddStringConstraint("A != B"))

	q := p.Copy()
	p.Clear()
	assert.Zero(t, p.VariableCount())

	sols := q.AllSolutions(context.Background())
	assert.Len(t, sols, 2, "copy must survive clearing the original")
}

func TestClear(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B"}, IntRange(1, 2)))
	require.NoError(t, p.AddStringConstraint("A != B"))
	p.Clear()
	assert.Zero(t, p.VariableCount())
	assert.Zero(t, p.ConstraintCount())
	assert.Empty(t, p.VariableNames())
}

func TestDegree(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "C", "D"}, IntRange(1, 3)))
	require.NoError(t, p.AddStringConstraint("A != B"))
	require.NoError(t, p.AddStringConstraint("A != C"))
	require.NoError(t, p.AddAllDifferent("A", "B", "C"))

	assert.Equal(t, 3, p.degree("A"))
	assert.Equal(t, 2, p.degree("B"))
	assert.Equal(t, 0, p.degree("D"))
}

func TestValidateWarnings(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "Lonely"}, IntRange(1, 3)))
	require.NoError(t, p.AddStringConstraint("A != B"))

	warnings := p.Validate()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Lonely")
}

func TestPrintSummary(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B"}, IntRange(1, 3)))
	require.NoError(t, p.AddStringConstraint("A != B"))

	var sb strings.Builder
	p.PrintSummary(&sb)
	out := sb.String()
	assert.Contains(t, out, "2 variables")
	assert.Contains(t, out, "A: 3 values")
}

func TestPredicatePanicIsViolation(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B"}, IntRange(1, 2)))
	require.NoError(t, p.AddConstraint([]string{"A", "B"}, BinaryPredicate(func(a, b Value) bool {
		if a.Int() == 2 {
			panic("boom")
		}
		return true
	})))

	sols := p.AllSolutions(context.Background())
	require.NotEmpty(t, sols)
	for _, sol := range sols {
		assert.Equal(t, int64(1), sol["A"].Int(), "panicking branches must be treated as violated")
	}
}
