// Package csp is a general-purpose finite-domain constraint satisfaction
// problem (CSP) solver library.
//
// A problem is a set of named variables, each with a finite discrete domain
// of candidate values, plus constraints restricting which combinations of
// values are admissible. The library finds one solution, lazily enumerates
// all solutions, or reports unsatisfiability.
//
// # Architecture
//
//	Problem (mutable through the builder API, immutable during a solve):
//	  - Variables: name -> ordered domain of Values
//	  - Binary constraints: installed as two directed arcs
//	  - N-ary constraints: ordered variable lists with predicate functions
//
//	Solving (each call clones the initial domains; the Problem is reusable):
//	  - Systematic: depth-first backtracking with forward checking.
//	    AC-3 maintains arc consistency over binary arcs, GAC maintains
//	    generalized arc consistency over n-ary constraints. Variables are
//	    chosen by MRV with degree tie-breaking, values by least-constraining
//	    ordering.
//	  - Stochastic: min-conflicts local search over complete assignments.
//
// # Typical usage
//
//	p := csp.NewProblem()
//	p.AddVariables([]string{"WA", "NT", "SA"}, csp.ValuesFromStrings("red", "green", "blue"))
//	p.AddStringConstraint("WA != NT")
//	p.AddStringConstraint("WA != SA")
//	p.AddStringConstraint("NT != SA")
//	sol, ok, err := p.Solve(context.Background())
//
// Constraints can be posted three ways: as predicate functions via
// AddConstraint, through the built-in helpers (AddAllDifferent,
// AddExactSum, ...), or as human-readable strings via AddStringConstraint
// which compiles expressions such as "A + B == C", "A != B != C",
// "5 <= A+B <= 7" or "A in [1,2,3]" into predicates.
//
// The systematic solver is deterministic: for a fixed problem the sequence
// of solutions is identical on every run. Min-conflicts is randomized and
// incomplete; seed it through SolverConfig.Rand for reproducibility.
package csp
