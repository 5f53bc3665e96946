// Package csp provides one-shot convenience functions mirroring the
// builder surface for quick use.
package csp

import "context"

// buildAllDifferent assembles the throwaway problem shared by the
// all-different one-shots.
func buildAllDifferent(names []string, domain []Value) (*Problem, error) {
	p := NewProblem()
	if err := p.AddVariables(names, domain); err != nil {
		return nil, err
	}
	if err := p.AddAllDifferent(names...); err != nil {
		return nil, err
	}
	return p, nil
}

// SolveAllDifferent finds one assignment of distinct domain values to the
// named variables.
func SolveAllDifferent(ctx context.Context, names []string, domain []Value) (Assignment, bool, error) {
	p, err := buildAllDifferent(names, domain)
	if err != nil {
		return nil, false, err
	}
	return p.Solve(ctx)
}

// AllDifferentSolutions enumerates every assignment of distinct domain
// values to the named variables.
func AllDifferentSolutions(ctx context.Context, names []string, domain []Value) ([]Assignment, error) {
	p, err := buildAllDifferent(names, domain)
	if err != nil {
		return nil, err
	}
	return p.AllSolutions(ctx), nil
}

// SolveWithConstraints builds a problem from shared-domain variables and
// string constraints, then finds one solution.
func SolveWithConstraints(ctx context.Context, names []string, domain []Value, constraints ...string) (Assignment, bool, error) {
	p := NewProblem()
	if err := p.AddVariables(names, domain); err != nil {
		return nil, false, err
	}
	if err := p.AddStringConstraints(constraints...); err != nil {
		return nil, false, err
	}
	return p.Solve(ctx)
}
