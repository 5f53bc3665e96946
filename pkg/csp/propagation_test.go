package csp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func domainInts(t *testing.T, domains map[string][]Value, name string) []int64 {
	t.Helper()
	out := make([]int64, 0, len(domains[name]))
	for _, v := range domains[name] {
		out = append(out, v.Int())
	}
	return out
}

func TestAC3Prunes(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B"}, IntRange(1, 3)))
	require.NoError(t, p.AddStringConstraint("A < B"))

	pr := newPropagator(p)
	domains := p.cloneDomains()
	require.True(t, pr.ac3(domains))

	assert.Equal(t, []int64{1, 2}, domainInts(t, domains, "A"))
	assert.Equal(t, []int64{2, 3}, domainInts(t, domains, "B"))
}

func TestAC3PostCondition(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "C"}, IntRange(1, 4)))
	require.NoError(t, p.AddStringConstraint("A < B"))
	require.NoError(t, p.AddStringConstraint("B < C"))

	pr := newPropagator(p)
	domains := p.cloneDomains()
	require.True(t, pr.ac3(domains))

	// Every surviving tail value has a supporting head value on each arc,
	// and no domain grew.
	for _, a := range pr.arcs {
		for _, y := range domains[a.tail] {
			supported := false
			for _, x := range domains[a.head] {
				if callBinary(a.pred, x, y) {
					supported = true
					break
				}
			}
			assert.True(t, supported, "value %s of %s lacks support on arc %s->%s", y, a.tail, a.head, a.tail)
		}
	}
	for _, name := range p.order {
		assert.LessOrEqual(t, len(domains[name]), len(p.domains[name]), "AC-3 must be monotone")
	}
}

func TestAC3Inconsistent(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariable("A", ValuesFromInts(3)))
	require.NoError(t, p.AddVariable("B", ValuesFromInts(1, 2)))
	require.NoError(t, p.AddVariable("C", ValuesFromInts(1, 2, 3)))
	require.NoError(t, p.AddStringConstraint("A < B"))

	pr := newPropagator(p)
	assert.False(t, pr.ac3(p.cloneDomains()))
}

func TestGACPigeonhole(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "C"}, IntRange(1, 2)))
	require.NoError(t, p.AddAllDifferent("A", "B", "C"))

	pr := newPropagator(p)
	assert.False(t, pr.gac(p.cloneDomains()), "three variables over two values cannot all differ")
}

func TestGACPrunesSingleton(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariable("A", IntRange(1, 3)))
	require.NoError(t, p.AddVariable("B", ValuesFromInts(1)))
	require.NoError(t, p.AddVariable("C", IntRange(1, 3)))
	require.NoError(t, p.AddAllDifferent("A", "B", "C"))

	pr := newPropagator(p)
	domains := p.cloneDomains()
	require.True(t, pr.gac(domains))

	assert.Equal(t, []int64{2, 3}, domainInts(t, domains, "A"))
	assert.Equal(t, []int64{1}, domainInts(t, domains, "B"))
	assert.Equal(t, []int64{2, 3}, domainInts(t, domains, "C"))
}

func TestGACSupportPostCondition(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "C"}, IntRange(0, 3)))
	require.NoError(t, p.AddExactSum([]string{"A", "B", "C"}, 3))

	pr := newPropagator(p)
	domains := p.cloneDomains()
	require.True(t, pr.gac(domains))

	for _, c := range pr.nary {
		for _, focal := range c.vars {
			for _, x := range domains[focal] {
				assert.True(t, pr.hasSupport(c, focal, x, domains),
					"value %s of %s must keep a full supporting assignment", x, focal)
			}
		}
	}
}

func TestGACUnaryConstraint(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariable("A", IntRange(1, 5)))
	require.NoError(t, p.AddStringConstraint("A in [2, 4]"))

	pr := newPropagator(p)
	domains := p.cloneDomains()
	require.True(t, pr.gac(domains))
	assert.Equal(t, []int64{2, 4}, domainInts(t, domains, "A"))
}

func TestEnforceRunsBothEngines(t *testing.T) {
	p := NewProblem()
	require.NoError(t, p.AddVariables([]string{"A", "B", "C"}, IntRange(1, 3)))
	require.NoError(t, p.AddStringConstraint("A < B"))
	require.NoError(t, p.AddAllDifferent("A", "B", "C"))

	pr := newPropagator(p)
	domains := p.cloneDomains()
	require.True(t, pr.enforce(domains))
	assert.Equal(t, []int64{1, 2}, domainInts(t, domains, "A"))
	assert.Equal(t, []int64{2, 3}, domainInts(t, domains, "B"))
}
