// Package csp provides the systematic search engine: depth-first
// backtracking with forward checking through the consistency engine,
// MRV+degree variable ordering and least-constraining-value ordering.
//
// Each solve call clones the problem's initial domains and builds the
// constraint indexes once; search frames share the indexes and own their
// domain maps. Enumeration is fully deterministic: variables are scanned
// in insertion order, values in domain order, and score ties keep domain
// order, so a fixed problem yields the same solution sequence on every
// run. Solve returns the first element of that sequence.
package csp

import (
	"context"
	"sort"
	"sync"
	"time"
)

// SolveStats counts work done by the most recent systematic solve.
type SolveStats struct {
	// Steps is the number of tentative assignments explored.
	Steps int
	// Backtracks is the number of search frames that exhausted every
	// candidate value and reported failure upward.
	Backtracks int
}

// searcher carries per-solve state: the constraint indexes, configuration
// and the solution sink. Discarded when the solve call returns.
type searcher struct {
	prob    *Problem
	prop    *propagator
	cfg     *SolverConfig
	ctx     context.Context
	degrees map[string]int
	stats   SolveStats

	// emit receives each solution; returning false stops the search.
	emit func(Assignment) bool
}

func (p *Problem) newSearcher(ctx context.Context, emit func(Assignment) bool) *searcher {
	degrees := make(map[string]int, len(p.order))
	for _, name := range p.order {
		degrees[name] = p.degree(name)
	}
	return &searcher{
		prob:    p,
		prop:    newPropagator(p),
		cfg:     p.config,
		ctx:     ctx,
		degrees: degrees,
		emit:    emit,
	}
}

func (s *searcher) run() {
	s.search(Assignment{}, cloneDomainMap(s.prob.domains))
}

// search explores one frame: select a variable, order its values, commit
// each in turn. Returns true to stop the whole search (solution limit
// reached or context canceled).
func (s *searcher) search(assigned Assignment, unassigned map[string][]Value) bool {
	if s.ctx.Err() != nil {
		return true
	}
	if len(unassigned) == 0 {
		return !s.emit(assigned.clone())
	}

	v := s.selectVariable(unassigned)

	// Least-constraining-value: tentatively assign each candidate, run
	// AC-3 + GAC, and score by the sum of remaining domain sizes across
	// the other variables. Candidates whose propagation fails are skipped
	// outright; propagation is sound, so such branches hold no solutions.
	type candidate struct {
		domains map[string][]Value
		score   int
	}
	candidates := make([]candidate, 0, len(unassigned[v]))
	for _, x := range unassigned[v] {
		if s.step(assigned, unassigned, v, x) {
			return true
		}
		// Propagation sees every variable: committed ones as singletons,
		// open ones with their current pruned domains.
		branch := cloneDomainMap(unassigned)
		branch[v] = []Value{x}
		for name, val := range assigned {
			branch[name] = []Value{val}
		}
		if !s.prop.enforce(branch) {
			continue
		}
		score := 0
		for name, dom := range branch {
			if name != v {
				score += len(dom)
			}
		}
		candidates = append(candidates, candidate{domains: branch, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, cand := range candidates {
		// Partition the propagated map: singleton domains join the
		// assignment, the rest stays open for deeper frames.
		newAssigned := assigned.clone()
		newUnassigned := make(map[string][]Value, len(cand.domains))
		for name, dom := range cand.domains {
			if _, committed := assigned[name]; committed {
				continue
			}
			if len(dom) == 1 {
				newAssigned[name] = dom[0]
			} else {
				newUnassigned[name] = dom
			}
		}
		if s.search(newAssigned, newUnassigned) {
			return true
		}
	}
	s.stats.Backtracks++
	return false
}

// selectVariable applies MRV with degree tie-breaking over the insertion
// order. A size-one domain short-circuits the scan.
func (s *searcher) selectVariable(unassigned map[string][]Value) string {
	best := ""
	bestSize, bestDegree := 0, 0
	for _, name := range s.prob.order {
		dom, open := unassigned[name]
		if !open {
			continue
		}
		if len(dom) == 1 {
			return name
		}
		if best == "" || len(dom) < bestSize ||
			(len(dom) == bestSize && s.degrees[name] > bestDegree) {
			best = name
			bestSize = len(dom)
			bestDegree = s.degrees[name]
		}
	}
	return best
}

// step accounts for one tentative assignment: statistics, the optional
// visualization callback with read-only snapshots, the optional
// presentation delay, and a cancellation check. Returns true to abort.
func (s *searcher) step(assigned Assignment, unassigned map[string][]Value, v string, x Value) bool {
	s.stats.Steps++
	if s.cfg.Callback != nil {
		snapA := make(map[string]Value, len(assigned)+1)
		for name, val := range assigned {
			snapA[name] = val
		}
		snapA[v] = x
		snapU := make(map[string][]Value, len(unassigned))
		for name, dom := range unassigned {
			if name == v {
				continue
			}
			snapU[name] = append([]Value(nil), dom...)
		}
		s.cfg.Callback(snapA, snapU)
	}
	if s.cfg.TimeStep > 0 {
		time.Sleep(s.cfg.TimeStep)
	}
	return s.ctx.Err() != nil
}

// cloneDomainMap copies the map shallowly. Propagation and assignment
// replace slice entries wholesale and never mutate backing arrays, so
// frames can share them safely.
func cloneDomainMap(m map[string][]Value) map[string][]Value {
	out := make(map[string][]Value, len(m))
	for name, dom := range m {
		out[name] = dom
	}
	return out
}

// Solve finds the first solution in enumeration order. ok is false when
// the problem is unsatisfiable; err is non-nil only when ctx was
// canceled before the search finished.
func (p *Problem) Solve(ctx context.Context) (Assignment, bool, error) {
	var found Assignment
	sr := p.newSearcher(ctx, func(sol Assignment) bool {
		found = sol
		return false
	})
	sr.run()
	p.setLastStats(sr.stats)
	if found == nil {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return found, true, nil
}

// SolutionStream is a lazy, single-consumption sequence of solutions.
// The producing search runs in its own goroutine and advances only as
// solutions are consumed. Close releases the producer early; the stream
// also stops when its context is canceled.
type SolutionStream struct {
	ch        chan Assignment
	done      chan struct{}
	closeOnce sync.Once
}

// Next returns the next solution. ok is false once the enumeration is
// exhausted or the stream was closed.
func (s *SolutionStream) Next() (Assignment, bool) {
	sol, ok := <-s.ch
	return sol, ok
}

// Take consumes up to n solutions.
func (s *SolutionStream) Take(n int) []Assignment {
	var out []Assignment
	for len(out) < n {
		sol, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, sol)
	}
	return out
}

// Close abandons the stream. Safe to call more than once and after
// exhaustion; remaining solutions are discarded.
func (s *SolutionStream) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Solutions lazily enumerates every solution in deterministic order.
// The caller must drain the stream or Close it.
func (p *Problem) Solutions(ctx context.Context) *SolutionStream {
	stream := &SolutionStream{
		ch:   make(chan Assignment),
		done: make(chan struct{}),
	}
	sr := p.newSearcher(ctx, func(sol Assignment) bool {
		select {
		case stream.ch <- sol:
			return true
		case <-stream.done:
			return false
		case <-ctx.Done():
			return false
		}
	})
	go func() {
		sr.run()
		p.setLastStats(sr.stats)
		close(stream.ch)
	}()
	return stream
}

// AllSolutions materializes the full enumeration.
func (p *Problem) AllSolutions(ctx context.Context) []Assignment {
	stream := p.Solutions(ctx)
	var out []Assignment
	for {
		sol, ok := stream.Next()
		if !ok {
			return out
		}
		out = append(out, sol)
	}
}

// CountSolutions counts solutions in O(1) memory over the stream.
func (p *Problem) CountSolutions(ctx context.Context) int {
	stream := p.Solutions(ctx)
	n := 0
	for {
		if _, ok := stream.Next(); !ok {
			return n
		}
		n++
	}
}

// HasMultipleSolutions reports whether at least two solutions exist,
// short-circuiting as soon as the second one is found.
func (p *Problem) HasMultipleSolutions(ctx context.Context) bool {
	stream := p.Solutions(ctx)
	defer stream.Close()
	return len(stream.Take(2)) == 2
}

// FirstN returns the first n solutions in enumeration order; fewer when
// the problem has fewer.
func (p *Problem) FirstN(ctx context.Context, n int) []Assignment {
	stream := p.Solutions(ctx)
	defer stream.Close()
	return stream.Take(n)
}
