// Package csp provides the consistency engine: AC-3 over directed binary
// arcs and generalized arc consistency (GAC) over n-ary constraints.
// Both operate on a mutable domains map owned by the calling search frame
// and are monotone: domains only ever shrink.
package csp

// propagator holds the per-solve read-only constraint indexes. Built once
// when a solve starts, shared by every search frame.
type propagator struct {
	arcs     []arc
	arcsFrom map[string][]int // head name -> indices of arcs it supports
	nary     []naryConstraint
	naryIdx  map[string][]int // variable name -> indices of n-ary constraints
}

func newPropagator(p *Problem) *propagator {
	pr := &propagator{
		arcs:     p.arcs,
		arcsFrom: make(map[string][]int),
		nary:     p.nary,
		naryIdx:  p.naryIndex(),
	}
	for i, a := range p.arcs {
		pr.arcsFrom[a.head] = append(pr.arcsFrom[a.head], i)
	}
	return pr
}

// enforce runs AC-3 to a fixed point, then GAC. Returns false when any
// domain empties; the map may be partially pruned in that case and must
// be discarded by the caller.
func (pr *propagator) enforce(domains map[string][]Value) bool {
	return pr.ac3(domains) && pr.gac(domains)
}

// ac3 restores arc consistency: upon return, for every arc (h, t, p) and
// every y in D_t there exists x in D_h with p(x, y). Works a queue seeded
// with every arc; a shrunk domain re-enqueues the arcs it supports.
func (pr *propagator) ac3(domains map[string][]Value) bool {
	queue := make([]int, len(pr.arcs))
	queued := make([]bool, len(pr.arcs))
	for i := range pr.arcs {
		queue[i] = i
		queued[i] = true
	}
	for len(queue) > 0 {
		ai := queue[0]
		queue = queue[1:]
		queued[ai] = false
		a := pr.arcs[ai]

		head, tail := domains[a.head], domains[a.tail]
		revised := tail[:0:0]
		for _, y := range tail {
			for _, x := range head {
				if callBinary(a.pred, x, y) {
					revised = append(revised, y)
					break
				}
			}
		}
		if len(revised) == len(tail) {
			continue
		}
		if len(revised) == 0 {
			return false
		}
		domains[a.tail] = revised
		for _, dep := range pr.arcsFrom[a.tail] {
			if !queued[dep] {
				queue = append(queue, dep)
				queued[dep] = true
			}
		}
	}
	return true
}

// gac restores generalized arc consistency: for every n-ary constraint c
// and every value x left in a participating variable's domain, some full
// assignment of c's other variables over current domains satisfies c.
// A shrunk domain re-enqueues every constraint sharing a variable.
func (pr *propagator) gac(domains map[string][]Value) bool {
	if len(pr.nary) == 0 {
		return true
	}
	queue := make([]int, len(pr.nary))
	queued := make([]bool, len(pr.nary))
	for i := range pr.nary {
		queue[i] = i
		queued[i] = true
	}
	for len(queue) > 0 {
		ci := queue[0]
		queue = queue[1:]
		queued[ci] = false
		c := pr.nary[ci]

		changed := false
		for _, focal := range c.vars {
			dom := domains[focal]
			revised := dom[:0:0]
			for _, x := range dom {
				if pr.hasSupport(c, focal, x, domains) {
					revised = append(revised, x)
				}
			}
			if len(revised) == len(dom) {
				continue
			}
			if len(revised) == 0 {
				return false
			}
			domains[focal] = revised
			changed = true
		}
		if !changed {
			continue
		}
		for _, name := range c.vars {
			for _, dep := range pr.naryIdx[name] {
				if !queued[dep] {
					queue = append(queue, dep)
					queued[dep] = true
				}
			}
		}
	}
	return true
}

// hasSupport searches for an assignment of c's other variables, each
// drawn from its current domain, under which c holds with focal fixed to
// x. The optimistic predicate contract lets the DFS test each partial
// assignment as it grows: false on a partial is a definite violation, so
// the whole subtree is pruned.
func (pr *propagator) hasSupport(c naryConstraint, focal string, x Value, domains map[string][]Value) bool {
	others := make([]string, 0, len(c.vars)-1)
	for _, name := range c.vars {
		if name != focal {
			others = append(others, name)
		}
	}
	asg := Assignment{focal: x}
	if len(others) > 0 && !callNary(c.pred, asg) {
		return false
	}
	var dfs func(i int) bool
	dfs = func(i int) bool {
		if i == len(others) {
			return callNary(c.pred, asg)
		}
		name := others[i]
		for _, val := range domains[name] {
			asg[name] = val
			if i+1 == len(others) || callNary(c.pred, asg) {
				if dfs(i + 1) {
					return true
				}
			}
		}
		delete(asg, name)
		return false
	}
	return dfs(0)
}
