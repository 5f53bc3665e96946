// Package csp provides the min-conflicts engine: local search by
// iterative repair over complete assignments. Incomplete by design — it
// may miss solutions on satisfiable instances — but often effective on
// large, loosely constrained problems.
package csp

import "context"

// SolveWithMinConflicts runs min-conflicts local search for up to
// maxSteps iterations (the configured MaxSteps when maxSteps <= 0).
// It starts from a uniformly random complete assignment and repeatedly
// reassigns a randomly chosen conflicted variable to a value violating
// the fewest constraints, breaking ties at random.
//
// ok is false when the step cap is exhausted without reaching a
// conflict-free assignment; a returned solution always satisfies every
// constraint. Randomness comes from SolverConfig.Rand when set.
func (p *Problem) SolveWithMinConflicts(ctx context.Context, maxSteps int) (Assignment, bool, error) {
	if maxSteps <= 0 {
		maxSteps = p.config.MaxSteps
	}
	if maxSteps <= 0 {
		maxSteps = 1000
	}
	rng := p.config.rng()

	current := make(Assignment, len(p.order))
	for _, name := range p.order {
		dom := p.domains[name]
		current[name] = dom[rng.IntN(len(dom))]
	}

	// Pre-index constraints per variable. Arcs are indexed by head only,
	// which visits each two-variable constraint exactly once per endpoint
	// thanks to the dual-arc installation.
	arcsOf := make(map[string][]int)
	for i, a := range p.arcs {
		arcsOf[a.head] = append(arcsOf[a.head], i)
	}
	naryOf := p.naryIndex()

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		conflicted := p.conflictedVariables(current)
		if len(conflicted) == 0 {
			return current, true, nil
		}
		v := conflicted[rng.IntN(len(conflicted))]

		// Evaluate every candidate value in place, keeping the ones that
		// minimize the number of violated constraints around v.
		bestCount := -1
		var best []Value
		for _, x := range p.domains[v] {
			current[v] = x
			count := p.conflictsAround(v, current, arcsOf, naryOf)
			switch {
			case bestCount < 0 || count < bestCount:
				bestCount = count
				best = best[:0]
				best = append(best, x)
			case count == bestCount:
				best = append(best, x)
			}
		}
		current[v] = best[rng.IntN(len(best))]
	}
	return nil, false, nil
}

// conflictedVariables lists, in declaration order, every variable that
// appears in a currently violated constraint.
func (p *Problem) conflictedVariables(current Assignment) []string {
	inConflict := make(map[string]bool)
	for _, a := range p.arcs {
		if !callBinary(a.pred, current[a.head], current[a.tail]) {
			inConflict[a.head] = true
			inConflict[a.tail] = true
		}
	}
	for _, c := range p.nary {
		if !callNary(c.pred, current) {
			for _, name := range c.vars {
				inConflict[name] = true
			}
		}
	}
	out := make([]string, 0, len(inConflict))
	for _, name := range p.order {
		if inConflict[name] {
			out = append(out, name)
		}
	}
	return out
}

// conflictsAround counts the constraints mentioning v that the current
// assignment violates.
func (p *Problem) conflictsAround(v string, current Assignment, arcsOf, naryOf map[string][]int) int {
	count := 0
	for _, ai := range arcsOf[v] {
		a := p.arcs[ai]
		if !callBinary(a.pred, current[a.head], current[a.tail]) {
			count++
		}
	}
	for _, ci := range naryOf[v] {
		if !callNary(p.nary[ci].pred, current) {
			count++
		}
	}
	return count
}
