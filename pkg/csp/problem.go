// Package csp provides the problem model and its fluent builder.
// A Problem collects named variables with finite domains, binary arcs and
// n-ary constraints. It is mutable only through the builder API; every
// solve call clones the domains, so a constructed Problem is reusable.
package csp

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Assignment maps variable names to chosen values. Partial during search,
// total at a solution.
type Assignment map[string]Value

// clone returns an independent copy of the assignment.
func (a Assignment) clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Predicate is the constraint callable abstraction. Exactly two arities
// exist: BinaryPredicate over a pair of values and NaryPredicate over an
// assignment. AddConstraint routes on the variable count and requires the
// matching arity.
type Predicate interface {
	isPredicate()
}

// BinaryPredicate decides a two-variable constraint. The arguments arrive
// in the order the constraint's variables were posted.
type BinaryPredicate func(a, b Value) bool

func (BinaryPredicate) isPredicate() {}

// NaryPredicate decides a constraint over one or more than two variables.
// Predicates must be optimistic on partial assignments: when any
// participating variable is absent from the map, return true ("not yet
// violated"); return false only on a definite violation given the
// supplied values. GAC support search calls the predicate on partial
// local assignments as it extends them and decides support on complete
// local ones; min-conflicts passes complete global assignments.
type NaryPredicate func(asg Assignment) bool

func (NaryPredicate) isPredicate() {}

// arc is a directed binary constraint (head, tail, predicate). The
// predicate takes (head value, tail value); AC-3 prunes the tail against
// the head. User constraints install both directions.
type arc struct {
	head, tail string
	pred       BinaryPredicate
}

// naryConstraint pairs an ordered variable list with its predicate.
type naryConstraint struct {
	vars []string
	pred NaryPredicate
}

// Problem is a constraint satisfaction problem under construction.
// Not safe for concurrent mutation; build first, then solve.
type Problem struct {
	order   []string           // variable names in insertion order
	domains map[string][]Value // name -> declared domain
	arcs    []arc
	nary    []naryConstraint
	config  *SolverConfig

	// lastStats holds counters from the most recent systematic solve.
	// Guarded by statsMu: stream-backed solves record it from the
	// producing goroutine.
	statsMu   sync.Mutex
	lastStats SolveStats
}

// NewProblem creates an empty problem with default configuration.
func NewProblem() *Problem {
	return &Problem{
		domains: make(map[string][]Value),
		config:  DefaultSolverConfig(),
	}
}

// AddVariable declares a variable with the given domain. The domain is
// copied; duplicates inside it are tolerated. Returns ErrDuplicateVariable
// or ErrEmptyDomain.
func (p *Problem) AddVariable(name string, domain []Value) error {
	if _, exists := p.domains[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateVariable, name)
	}
	if len(domain) == 0 {
		return fmt.Errorf("%w: variable %q", ErrEmptyDomain, name)
	}
	dom := make([]Value, len(domain))
	copy(dom, domain)
	p.order = append(p.order, name)
	p.domains[name] = dom
	return nil
}

// AddVariables declares several variables sharing one domain.
func (p *Problem) AddVariables(names []string, domain []Value) error {
	for _, name := range names {
		if err := p.AddVariable(name, domain); err != nil {
			return err
		}
	}
	return nil
}

// AddConstraint posts a constraint over the named variables, routing by
// arity: two variables require a BinaryPredicate and install both directed
// arcs; one variable or three-plus require a NaryPredicate. Returns
// ErrUnknownVariable or ErrArityMismatch.
func (p *Problem) AddConstraint(vars []string, pred Predicate) error {
	if len(vars) == 0 {
		return fmt.Errorf("%w: constraint needs at least one variable", ErrArityMismatch)
	}
	for _, name := range vars {
		if _, ok := p.domains[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
	}
	switch pr := pred.(type) {
	case BinaryPredicate:
		if len(vars) != 2 {
			return fmt.Errorf("%w: binary predicate posted on %d variables", ErrArityMismatch, len(vars))
		}
		p.addArcs(vars[0], vars[1], pr)
		return nil
	case NaryPredicate:
		if len(vars) == 2 {
			return fmt.Errorf("%w: two-variable constraint needs a binary predicate", ErrArityMismatch)
		}
		vs := make([]string, len(vars))
		copy(vs, vars)
		p.nary = append(p.nary, naryConstraint{vars: vs, pred: pr})
		return nil
	}
	return fmt.Errorf("%w: unsupported predicate type %T", ErrArityMismatch, pred)
}

// addArcs installs both directions of a two-variable constraint so that
// AC-3 can prune either endpoint. The predicate may be asymmetric; the
// reversed arc swaps the argument order.
func (p *Problem) addArcs(x, y string, pred BinaryPredicate) {
	p.arcs = append(p.arcs,
		arc{head: x, tail: y, pred: pred},
		arc{head: y, tail: x, pred: func(a, b Value) bool { return callBinary(pred, b, a) }},
	)
}

// AddStringConstraint compiles a constraint expression such as
// "A + B == C" or "A in [1,2,3]" and posts the result. Returns ErrParse
// or ErrUnknownVariable.
func (p *Problem) AddStringConstraint(expr string) error {
	pc, err := ParseConstraint(expr, p.order)
	if err != nil {
		return err
	}
	if pc.Binary != nil {
		return p.AddConstraint(pc.Vars, pc.Binary)
	}
	return p.AddConstraint(pc.Vars, pc.Nary)
}

// AddStringConstraints posts several expressions, stopping at the first error.
func (p *Problem) AddStringConstraints(exprs ...string) error {
	for _, e := range exprs {
		if err := p.AddStringConstraint(e); err != nil {
			return err
		}
	}
	return nil
}

// SetOptions replaces the solver configuration. A nil config restores the
// defaults.
func (p *Problem) SetOptions(config *SolverConfig) {
	if config == nil {
		config = DefaultSolverConfig()
	}
	p.config = config
}

// Copy deep-clones the problem: domains and constraint lists are
// independent, predicates are shared (they are immutable closures).
func (p *Problem) Copy() *Problem {
	out := NewProblem()
	out.order = append([]string(nil), p.order...)
	for name, dom := range p.domains {
		out.domains[name] = append([]Value(nil), dom...)
	}
	out.arcs = append([]arc(nil), p.arcs...)
	for _, c := range p.nary {
		out.nary = append(out.nary, naryConstraint{
			vars: append([]string(nil), c.vars...),
			pred: c.pred,
		})
	}
	cfg := *p.config
	out.config = &cfg
	return out
}

// Clear empties the problem: all variables, constraints and statistics are
// discarded. Configuration is kept.
func (p *Problem) Clear() {
	p.order = nil
	p.domains = make(map[string][]Value)
	p.arcs = nil
	p.nary = nil
	p.setLastStats(SolveStats{})
}

// VariableNames returns the declared names in insertion order.
func (p *Problem) VariableNames() []string {
	return append([]string(nil), p.order...)
}

// Domain returns a copy of the declared domain, or nil for unknown names.
func (p *Problem) Domain(name string) []Value {
	dom, ok := p.domains[name]
	if !ok {
		return nil
	}
	return append([]Value(nil), dom...)
}

// VariableCount returns the number of declared variables.
func (p *Problem) VariableCount() int { return len(p.order) }

// ConstraintCount returns the number of posted constraints. Each
// two-variable constraint counts once even though it is stored as two
// directed arcs.
func (p *Problem) ConstraintCount() int { return len(p.arcs)/2 + len(p.nary) }

// LastStats returns counters from the most recent systematic solve on
// this problem.
func (p *Problem) LastStats() SolveStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.lastStats
}

func (p *Problem) setLastStats(stats SolveStats) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.lastStats = stats
}

// degree counts the constraints referencing a variable: directed arcs in
// which it is the head (one per two-variable constraint touching it) plus
// n-ary constraints mentioning it. Used by the MRV tie-break.
func (p *Problem) degree(name string) int {
	d := 0
	for _, a := range p.arcs {
		if a.head == name {
			d++
		}
	}
	for _, c := range p.nary {
		for _, v := range c.vars {
			if v == name {
				d++
				break
			}
		}
	}
	return d
}

// naryIndex derives the variable -> n-ary constraint mapping. Built once
// per solve call and read-only thereafter.
func (p *Problem) naryIndex() map[string][]int {
	idx := make(map[string][]int)
	for i, c := range p.nary {
		for _, v := range c.vars {
			idx[v] = append(idx[v], i)
		}
	}
	return idx
}

// cloneDomains copies the current domain map for a solve or a branch.
func (p *Problem) cloneDomains() map[string][]Value {
	out := make(map[string][]Value, len(p.domains))
	for name, dom := range p.domains {
		out[name] = append([]Value(nil), dom...)
	}
	return out
}

// Validate inspects the problem and returns human-readable warnings:
// variables no constraint mentions, and suspiciously high
// constraint-to-variable ratios. Validation never aborts construction.
func (p *Problem) Validate() []string {
	var warnings []string
	for _, name := range p.order {
		if p.degree(name) == 0 {
			warnings = append(warnings, fmt.Sprintf("variable %q is not referenced by any constraint", name))
		}
	}
	if n := len(p.order); n > 0 {
		ratio := float64(p.ConstraintCount()) / float64(n)
		if ratio > 4 {
			warnings = append(warnings, fmt.Sprintf(
				"%d constraints over %d variables (ratio %.1f); the problem may be over-constrained", p.ConstraintCount(), n, ratio))
		}
	}
	return warnings
}

// PrintSummary writes a short description of the problem to w.
func (p *Problem) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "Problem: %d variables, %d constraints (%d binary, %d n-ary)\n",
		len(p.order), p.ConstraintCount(), len(p.arcs)/2, len(p.nary))
	names := append([]string(nil), p.order...)
	sort.Strings(names)
	for _, name := range names {
		dom := p.domains[name]
		fmt.Fprintf(w, "  %s: %d values, degree %d\n", name, len(dom), p.degree(name))
	}
}

// callBinary evaluates a binary predicate, treating a panic in user code
// as a violation.
func callBinary(pred BinaryPredicate, a, b Value) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return pred(a, b)
}

// callNary evaluates an n-ary predicate, treating a panic in user code as
// a violation.
func callNary(pred NaryPredicate, asg Assignment) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return pred(asg)
}
