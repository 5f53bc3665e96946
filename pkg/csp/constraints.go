// Package csp provides the built-in constraint factories.
// Each factory closes over the ordered variable list it governs and
// returns a predicate; the Problem helpers route two-variable cases to
// binary specializations so that AC-3 can act on them directly.
//
// All n-ary factories follow the optimistic contract: a variable missing
// from the supplied assignment never causes failure, and false is
// returned only on a definite violation given the present values.
// Aggregates (sums, products) therefore decide only on complete local
// assignments, while structural constraints (all-different, membership)
// may reject early on the values they can already see.
package csp

import "fmt"

// AllDifferent returns a predicate that holds when no two of the named
// variables share a value.
func AllDifferent(vars []string) NaryPredicate {
	return func(asg Assignment) bool {
		seen := make([]Value, 0, len(vars))
		for _, name := range vars {
			v, ok := asg[name]
			if !ok {
				continue
			}
			for _, prev := range seen {
				if valuesEqual(prev, v) {
					return false
				}
			}
			seen = append(seen, v)
		}
		return true
	}
}

// AllEqual returns a predicate that holds when every assigned variable
// carries the same value. Vacuously true when none are assigned.
func AllEqual(vars []string) NaryPredicate {
	return func(asg Assignment) bool {
		var first Value
		have := false
		for _, name := range vars {
			v, ok := asg[name]
			if !ok {
				continue
			}
			if !have {
				first, have = v, true
				continue
			}
			if !valuesEqual(first, v) {
				return false
			}
		}
		return true
	}
}

// weightedSum accumulates the multiplier-weighted sum of the variables.
// complete is false when any variable is unassigned; numeric is false
// when an assigned value is not a number.
func weightedSum(vars []string, multipliers []float64, asg Assignment) (sum float64, complete, numeric bool) {
	complete, numeric = true, true
	for i, name := range vars {
		v, ok := asg[name]
		if !ok {
			complete = false
			continue
		}
		f, ok := v.toFloat()
		if !ok {
			numeric = false
			continue
		}
		m := 1.0
		if i < len(multipliers) {
			m = multipliers[i]
		}
		sum += m * f
	}
	return sum, complete, numeric
}

// ExactSum returns a predicate enforcing sum(m_i * v_i) == target.
// Multipliers default to 1 when fewer are supplied than variables.
func ExactSum(vars []string, target float64, multipliers ...float64) NaryPredicate {
	return func(asg Assignment) bool {
		sum, complete, numeric := weightedSum(vars, multipliers, asg)
		if !complete {
			return true
		}
		return numeric && sum == target
	}
}

// MinSum returns a predicate enforcing sum(m_i * v_i) >= min.
func MinSum(vars []string, min float64, multipliers ...float64) NaryPredicate {
	return func(asg Assignment) bool {
		sum, complete, numeric := weightedSum(vars, multipliers, asg)
		if !complete {
			return true
		}
		return numeric && sum >= min
	}
}

// MaxSum returns a predicate enforcing sum(m_i * v_i) <= max.
func MaxSum(vars []string, max float64, multipliers ...float64) NaryPredicate {
	return func(asg Assignment) bool {
		sum, complete, numeric := weightedSum(vars, multipliers, asg)
		if !complete {
			return true
		}
		return numeric && sum <= max
	}
}

// SumInRange returns a predicate enforcing lo <= sum(m_i * v_i) <= hi.
func SumInRange(vars []string, lo, hi float64, multipliers ...float64) NaryPredicate {
	return func(asg Assignment) bool {
		sum, complete, numeric := weightedSum(vars, multipliers, asg)
		if !complete {
			return true
		}
		return numeric && sum >= lo && sum <= hi
	}
}

// product accumulates the product of the assigned variables. An empty
// assignment yields 1.
func product(vars []string, asg Assignment) (prod float64, complete, numeric bool) {
	prod, complete, numeric = 1, true, true
	for _, name := range vars {
		v, ok := asg[name]
		if !ok {
			complete = false
			continue
		}
		f, ok := v.toFloat()
		if !ok {
			numeric = false
			continue
		}
		prod *= f
	}
	return prod, complete, numeric
}

// ExactProduct returns a predicate enforcing prod(v_i) == target.
func ExactProduct(vars []string, target float64) NaryPredicate {
	return func(asg Assignment) bool {
		prod, complete, numeric := product(vars, asg)
		if !complete {
			return true
		}
		return numeric && prod == target
	}
}

// MinProduct returns a predicate enforcing prod(v_i) >= min.
func MinProduct(vars []string, min float64) NaryPredicate {
	return func(asg Assignment) bool {
		prod, complete, numeric := product(vars, asg)
		if !complete {
			return true
		}
		return numeric && prod >= min
	}
}

// MaxProduct returns a predicate enforcing prod(v_i) <= max.
func MaxProduct(vars []string, max float64) NaryPredicate {
	return func(asg Assignment) bool {
		prod, complete, numeric := product(vars, asg)
		if !complete {
			return true
		}
		return numeric && prod <= max
	}
}

// containsValue reports set membership under predicate equality.
func containsValue(set []Value, v Value) bool {
	for _, s := range set {
		if valuesEqual(s, v) {
			return true
		}
	}
	return false
}

// InSet returns a predicate holding when every assigned variable's value
// is a member of set.
func InSet(vars []string, set []Value) NaryPredicate {
	return func(asg Assignment) bool {
		for _, name := range vars {
			if v, ok := asg[name]; ok && !containsValue(set, v) {
				return false
			}
		}
		return true
	}
}

// NotInSet returns a predicate holding when no assigned variable's value
// is a member of set.
func NotInSet(vars []string, set []Value) NaryPredicate {
	return func(asg Assignment) bool {
		for _, name := range vars {
			if v, ok := asg[name]; ok && containsValue(set, v) {
				return false
			}
		}
		return true
	}
}

// SomeInSet returns a predicate requiring at least n of the variables to
// take values in set.
func SomeInSet(vars []string, set []Value, n int) NaryPredicate {
	return func(asg Assignment) bool {
		hits, complete := 0, true
		for _, name := range vars {
			v, ok := asg[name]
			if !ok {
				complete = false
				continue
			}
			if containsValue(set, v) {
				hits++
			}
		}
		if hits >= n {
			return true
		}
		return !complete
	}
}

// SomeNotInSet returns a predicate requiring at least n of the variables
// to take values outside set.
func SomeNotInSet(vars []string, set []Value, n int) NaryPredicate {
	return func(asg Assignment) bool {
		hits, complete := 0, true
		for _, name := range vars {
			v, ok := asg[name]
			if !ok {
				complete = false
				continue
			}
			if !containsValue(set, v) {
				hits++
			}
		}
		if hits >= n {
			return true
		}
		return !complete
	}
}

// ordered builds a pairwise comparison predicate along the given order.
// Any unassigned participant makes the predicate hold; it will be
// rechecked once more values arrive.
func ordered(order []string, admit func(cmp int) bool) NaryPredicate {
	return func(asg Assignment) bool {
		for i := 0; i+1 < len(order); i++ {
			a, aok := asg[order[i]]
			b, bok := asg[order[i+1]]
			if !aok || !bok {
				return true
			}
			cmp, ok := compareValues(a, b)
			if !ok || !admit(cmp) {
				return false
			}
		}
		return true
	}
}

// Ascending returns a predicate enforcing v_1 <= v_2 <= ... along order.
func Ascending(order []string) NaryPredicate {
	return ordered(order, func(cmp int) bool { return cmp <= 0 })
}

// StrictlyAscending returns a predicate enforcing v_1 < v_2 < ... along order.
func StrictlyAscending(order []string) NaryPredicate {
	return ordered(order, func(cmp int) bool { return cmp < 0 })
}

// Descending returns a predicate enforcing v_1 >= v_2 >= ... along order.
func Descending(order []string) NaryPredicate {
	return ordered(order, func(cmp int) bool { return cmp >= 0 })
}

// StrictlyDescending returns a predicate enforcing v_1 > v_2 > ... along order.
func StrictlyDescending(order []string) NaryPredicate {
	return ordered(order, func(cmp int) bool { return cmp > 0 })
}

// VariableSum returns a predicate enforcing sum(operands) == result where
// result is itself a variable.
func VariableSum(result string, operands []string) NaryPredicate {
	return func(asg Assignment) bool {
		r, ok := asg[result]
		if !ok {
			return true
		}
		sum, complete, numeric := weightedSum(operands, nil, asg)
		if !complete {
			return true
		}
		rf, rok := r.toFloat()
		return numeric && rok && sum == rf
	}
}

// VariableProduct returns a predicate enforcing prod(operands) == result
// where result is itself a variable.
func VariableProduct(result string, operands []string) NaryPredicate {
	return func(asg Assignment) bool {
		r, ok := asg[result]
		if !ok {
			return true
		}
		prod, complete, numeric := product(operands, asg)
		if !complete {
			return true
		}
		rf, rok := r.toFloat()
		return numeric && rok && prod == rf
	}
}

// Binary comparison specializations. These act on value pairs directly so
// the builder can install them as arcs.

// EqualBinary holds when both values are equal.
func EqualBinary() BinaryPredicate {
	return func(a, b Value) bool { return valuesEqual(a, b) }
}

// NotEqualBinary holds when the values differ.
func NotEqualBinary() BinaryPredicate {
	return func(a, b Value) bool { return !valuesEqual(a, b) }
}

// LessBinary holds when a < b under value ordering.
func LessBinary() BinaryPredicate {
	return func(a, b Value) bool {
		cmp, ok := compareValues(a, b)
		return ok && cmp < 0
	}
}

// LessEqBinary holds when a <= b under value ordering.
func LessEqBinary() BinaryPredicate {
	return func(a, b Value) bool {
		cmp, ok := compareValues(a, b)
		return ok && cmp <= 0
	}
}

// GreaterBinary holds when a > b under value ordering.
func GreaterBinary() BinaryPredicate {
	return func(a, b Value) bool {
		cmp, ok := compareValues(a, b)
		return ok && cmp > 0
	}
}

// GreaterEqBinary holds when a >= b under value ordering.
func GreaterEqBinary() BinaryPredicate {
	return func(a, b Value) bool {
		cmp, ok := compareValues(a, b)
		return ok && cmp >= 0
	}
}

// binarySpecialization adapts an n-ary predicate over exactly two
// variables into a BinaryPredicate, so the helper methods can route
// two-variable cases onto arcs.
func binarySpecialization(x, y string, pred NaryPredicate) BinaryPredicate {
	return func(a, b Value) bool {
		return callNary(pred, Assignment{x: a, y: b})
	}
}

// post routes a factory predicate through AddConstraint, preferring the
// binary specialization for the two-variable case.
func (p *Problem) post(vars []string, pred NaryPredicate) error {
	if len(vars) == 2 {
		return p.AddConstraint(vars, binarySpecialization(vars[0], vars[1], pred))
	}
	return p.AddConstraint(vars, pred)
}

// AddAllDifferent posts an all-different constraint over the variables.
func (p *Problem) AddAllDifferent(vars ...string) error {
	if len(vars) < 2 {
		return fmt.Errorf("%w: all-different needs at least two variables", ErrArityMismatch)
	}
	return p.post(vars, AllDifferent(vars))
}

// AddAllEqual posts an all-equal constraint over the variables.
func (p *Problem) AddAllEqual(vars ...string) error {
	if len(vars) < 2 {
		return fmt.Errorf("%w: all-equal needs at least two variables", ErrArityMismatch)
	}
	return p.post(vars, AllEqual(vars))
}

// AddExactSum posts sum(m_i * v_i) == target.
func (p *Problem) AddExactSum(vars []string, target float64, multipliers ...float64) error {
	return p.post(vars, ExactSum(vars, target, multipliers...))
}

// AddMinSum posts sum(m_i * v_i) >= min.
func (p *Problem) AddMinSum(vars []string, min float64, multipliers ...float64) error {
	return p.post(vars, MinSum(vars, min, multipliers...))
}

// AddMaxSum posts sum(m_i * v_i) <= max.
func (p *Problem) AddMaxSum(vars []string, max float64, multipliers ...float64) error {
	return p.post(vars, MaxSum(vars, max, multipliers...))
}

// AddSumInRange posts lo <= sum(m_i * v_i) <= hi.
func (p *Problem) AddSumInRange(vars []string, lo, hi float64, multipliers ...float64) error {
	return p.post(vars, SumInRange(vars, lo, hi, multipliers...))
}

// AddExactProduct posts prod(v_i) == target.
func (p *Problem) AddExactProduct(vars []string, target float64) error {
	return p.post(vars, ExactProduct(vars, target))
}

// AddMinProduct posts prod(v_i) >= min.
func (p *Problem) AddMinProduct(vars []string, min float64) error {
	return p.post(vars, MinProduct(vars, min))
}

// AddMaxProduct posts prod(v_i) <= max.
func (p *Problem) AddMaxProduct(vars []string, max float64) error {
	return p.post(vars, MaxProduct(vars, max))
}

// AddInSet posts a membership constraint: every variable in set.
func (p *Problem) AddInSet(vars []string, set []Value) error {
	return p.post(vars, InSet(vars, set))
}

// AddNotInSet posts an exclusion constraint: no variable in set.
func (p *Problem) AddNotInSet(vars []string, set []Value) error {
	return p.post(vars, NotInSet(vars, set))
}

// AddSomeInSet posts: at least n variables take values in set.
func (p *Problem) AddSomeInSet(vars []string, set []Value, n int) error {
	return p.post(vars, SomeInSet(vars, set, n))
}

// AddSomeNotInSet posts: at least n variables take values outside set.
func (p *Problem) AddSomeNotInSet(vars []string, set []Value, n int) error {
	return p.post(vars, SomeNotInSet(vars, set, n))
}

// AddAscending posts v_1 <= v_2 <= ... along the given order.
func (p *Problem) AddAscending(vars ...string) error {
	return p.post(vars, Ascending(vars))
}

// AddStrictlyAscending posts v_1 < v_2 < ... along the given order.
func (p *Problem) AddStrictlyAscending(vars ...string) error {
	return p.post(vars, StrictlyAscending(vars))
}

// AddDescending posts v_1 >= v_2 >= ... along the given order.
func (p *Problem) AddDescending(vars ...string) error {
	return p.post(vars, Descending(vars))
}
