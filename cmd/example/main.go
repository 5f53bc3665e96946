// Package main tours the gocsp public surface: building a problem,
// validating it, solving systematically, streaming solutions, and
// falling back to min-conflicts local search.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gitrdm/gocsp/pkg/csp"
)

func main() {
	fmt.Println("=== gocsp Examples ===")
	fmt.Println()

	stringConstraints()
	builtInHelpers()
	streaming()
	minConflicts()
}

// stringConstraints shows the expression compiler at work.
func stringConstraints() {
	fmt.Println("1. String Constraints:")

	p := csp.NewProblem()
	must(p.AddVariables([]string{"A", "B", "C"}, csp.IntRange(1, 9)))
	must(p.AddStringConstraints(
		"A < B < C",
		"A + B + C == 12",
		"C in [5, 6, 7]",
	))

	sol, ok, err := p.Solve(context.Background())
	must(err)
	if !ok {
		fmt.Println("   unsolvable")
		return
	}
	fmt.Printf("   A < B < C, A+B+C == 12, C in [5,6,7] => A=%s B=%s C=%s\n\n",
		sol["A"], sol["B"], sol["C"])
}

// builtInHelpers shows the factory helpers and problem validation.
func builtInHelpers() {
	fmt.Println("2. Built-in Helpers:")

	p := csp.NewProblem()
	must(p.AddVariables([]string{"X", "Y", "Z"}, csp.IntRange(1, 4)))
	must(p.AddAllDifferent("X", "Y", "Z"))
	must(p.AddMaxSum([]string{"X", "Y", "Z"}, 7))

	for _, warning := range p.Validate() {
		fmt.Println("   warning:", warning)
	}
	p.PrintSummary(os.Stdout)

	count := p.CountSolutions(context.Background())
	fmt.Printf("   distinct X,Y,Z with sum <= 7: %d solutions\n\n", count)
}

// streaming shows lazy enumeration through the solution stream.
func streaming() {
	fmt.Println("3. Lazy Streaming:")

	p := csp.NewProblem()
	must(p.AddVariables([]string{"A", "B"}, csp.IntRange(1, 5)))
	must(p.AddStringConstraint("A < B"))

	stream := p.Solutions(context.Background())
	defer stream.Close()
	for _, sol := range stream.Take(3) {
		fmt.Printf("   A=%s B=%s\n", sol["A"], sol["B"])
	}
	fmt.Println("   (the search runs at most one solution ahead of the consumer)")
	fmt.Println()
}

// minConflicts shows the stochastic engine on a loosely constrained
// problem.
func minConflicts() {
	fmt.Println("4. Min-Conflicts Local Search:")

	p := csp.NewProblem()
	regions := []string{"WA", "NT", "SA", "Q", "NSW", "V", "T"}
	must(p.AddVariables(regions, csp.ValuesFromStrings("red", "green", "blue")))
	must(p.AddStringConstraints(
		"WA != NT", "WA != SA", "NT != SA", "NT != Q",
		"SA != Q", "SA != NSW", "SA != V", "Q != NSW", "NSW != V",
	))

	sol, ok, err := p.SolveWithMinConflicts(context.Background(), 1000)
	must(err)
	if !ok {
		fmt.Println("   step cap exhausted without a solution")
		return
	}
	for _, name := range regions {
		fmt.Printf("   %-3s -> %s\n", name, sol[name])
	}
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
