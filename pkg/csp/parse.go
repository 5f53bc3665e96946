// Package csp provides the constraint-expression compiler.
// ParseConstraint turns a human-readable string such as "A + B == C",
// "A != B != C", "5 <= A+B <= 7" or "A in [1,2,3]" into an executable
// predicate classified by arity. Nine recognition rules are tried in
// order; expressions none of them match compile through the generic
// evaluator (expr-lang, rule 10), which applies the usual *,/ before +,- operator
// precedence, left associativity within each level, and negative
// literals. A runtime evaluation error, division by zero included, fails
// the predicate rather than the solve.
package csp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// epsilon offsets bounds when strict arithmetic inequalities are lowered
// onto the inclusive min/max factories.
const epsilon = 1e-9

// ParsedConstraint is the compiler output: the referenced variables and
// exactly one predicate, binary or n-ary. Vars follow the order of first
// appearance, except that variable equations (rule 6) list the result
// variable last.
type ParsedConstraint struct {
	Vars   []string
	Binary BinaryPredicate
	Nary   NaryPredicate
}

var (
	identTokenRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	numberRe     = regexp.MustCompile(`^[-+]?\d+(?:\.\d+)?$`)
	quotedRe     = regexp.MustCompile(`'[^']*'|"[^"]*"`)
	bracketRe    = regexp.MustCompile(`\[[^\]]*\]`)
	rangeRe      = regexp.MustCompile(`^([-+]?\d+(?:\.\d+)?)\s*(<=|<)\s*(.+?)\s*(<=|<)\s*([-+]?\d+(?:\.\d+)?)$`)
	relationRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(==|!=|<=|>=|<|>)\s*([A-Za-z_][A-Za-z0-9_]*)$`)
	chainRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:\s*(?:<=|<|>=|>)\s*[A-Za-z_][A-Za-z0-9_]*){2,}$`)
	chainOpRe    = regexp.MustCompile(`<=|<|>=|>`)
	setRe        = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s+(not\s+)?in\s*\[(.*)\]$`)
)

// keywords the validator accepts beyond declared variable names.
var exprKeywords = map[string]bool{
	"in": true, "not": true, "and": true, "or": true,
	"true": true, "false": true,
}

// ParseConstraint compiles src against the declared variable names.
// Returns ErrParse (wrapped with detail) on malformed input or on
// identifiers that are not declared variables.
func ParseConstraint(src string, declared []string) (*ParsedConstraint, error) {
	s := strings.TrimSpace(src)
	if s == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}
	decl := make(map[string]bool, len(declared))
	for _, name := range declared {
		decl[name] = true
	}

	// Identifier validation runs on the expression with string and set
	// literals blanked out: their contents are values, not identifiers.
	stripped := bracketRe.ReplaceAllString(quotedRe.ReplaceAllString(s, " "), "[]")
	for _, tok := range identTokenRe.FindAllString(stripped, -1) {
		if !decl[tok] && !exprKeywords[tok] {
			return nil, fmt.Errorf("%w: undefined identifier %q in %q", ErrParse, tok, src)
		}
	}
	vars := referencedVars(stripped, decl)
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: no declared variables referenced in %q", ErrParse, src)
	}

	for _, rule := range []func(string, map[string]bool) (*ParsedConstraint, error){
		parseRange,
		parseChainedNotEqual,
		parseBinaryRelation,
		parseChainedOrdering,
		parseVarConstant,
		parseVariableEquation,
		parseArithmeticEquality,
		parseArithmeticInequality,
		parseSetMembership,
	} {
		pc, err := rule(s, decl)
		if err != nil {
			return nil, err
		}
		if pc != nil {
			return pc, nil
		}
	}
	return parseFallback(s, vars)
}

// referencedVars lists declared variables in order of first appearance.
// Identifier tokenization is maximal-munch, so a declared name is never
// mistaken for a prefix of a longer identifier.
func referencedVars(s string, decl map[string]bool) []string {
	var vars []string
	seen := make(map[string]bool)
	for _, tok := range identTokenRe.FindAllString(s, -1) {
		if decl[tok] && !seen[tok] {
			seen[tok] = true
			vars = append(vars, tok)
		}
	}
	return vars
}

// sumTerm is one addend of a simple sum expression: coeff*name.
type sumTerm struct {
	name  string
	coeff float64
}

// parseSum recognizes "T1 + T2 + ..." where each term is a declared
// variable V, k*V or V*k. Anything else (parentheses, subtraction,
// constant terms) is not a simple sum.
func parseSum(s string, decl map[string]bool) ([]sumTerm, bool) {
	parts := strings.Split(s, "+")
	terms := make([]sumTerm, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		if decl[part] {
			terms = append(terms, sumTerm{name: part, coeff: 1})
			continue
		}
		factors := strings.Split(part, "*")
		if len(factors) != 2 {
			return nil, false
		}
		a, b := strings.TrimSpace(factors[0]), strings.TrimSpace(factors[1])
		switch {
		case numberRe.MatchString(a) && decl[b]:
			c, _ := strconv.ParseFloat(a, 64)
			terms = append(terms, sumTerm{name: b, coeff: c})
		case decl[a] && numberRe.MatchString(b):
			c, _ := strconv.ParseFloat(b, 64)
			terms = append(terms, sumTerm{name: a, coeff: c})
		default:
			return nil, false
		}
	}
	return terms, true
}

// parseProduct recognizes "V1 * V2 * ..." with two or more declared
// variable factors.
func parseProduct(s string, decl map[string]bool) ([]string, bool) {
	parts := strings.Split(s, "*")
	if len(parts) < 2 {
		return nil, false
	}
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if !decl[part] {
			return nil, false
		}
		names = append(names, part)
	}
	return names, true
}

// termVars extracts the variable list and multiplier list of a sum.
func termVars(terms []sumTerm) (vars []string, multipliers []float64) {
	for _, t := range terms {
		vars = append(vars, t.name)
		multipliers = append(multipliers, t.coeff)
	}
	return vars, multipliers
}

// classify wraps an n-ary predicate into a ParsedConstraint, preferring
// the binary specialization for the two-variable case so the builder
// installs arcs.
func classify(vars []string, pred NaryPredicate) *ParsedConstraint {
	if len(vars) == 2 {
		return &ParsedConstraint{
			Vars:   vars,
			Binary: binarySpecialization(vars[0], vars[1], pred),
		}
	}
	return &ParsedConstraint{Vars: vars, Nary: pred}
}

// Rule 1: range constraint "c1 <=/< expr <=/< c2" over a sum of variables.
func parseRange(s string, decl map[string]bool) (*ParsedConstraint, error) {
	m := rangeRe.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	terms, ok := parseSum(m[3], decl)
	if !ok {
		return nil, nil
	}
	lo, _ := strconv.ParseFloat(m[1], 64)
	hi, _ := strconv.ParseFloat(m[5], 64)
	if m[2] == "<" {
		lo += epsilon
	}
	if m[4] == "<" {
		hi -= epsilon
	}
	vars, multipliers := termVars(terms)
	return classify(uniqueNames(vars), SumInRange(vars, lo, hi, multipliers...)), nil
}

// Rule 2: chained inequality "V1 != V2 != ... != Vn" (n >= 3) lowers to
// all-different.
func parseChainedNotEqual(s string, decl map[string]bool) (*ParsedConstraint, error) {
	parts := strings.Split(s, "!=")
	if len(parts) < 3 {
		return nil, nil
	}
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if !decl[part] {
			return nil, nil
		}
		names = append(names, part)
	}
	return classify(uniqueNames(names), AllDifferent(names)), nil
}

// Rule 3: binary variable relation "V1 op V2".
func parseBinaryRelation(s string, decl map[string]bool) (*ParsedConstraint, error) {
	m := relationRe.FindStringSubmatch(s)
	if m == nil || !decl[m[1]] || !decl[m[3]] {
		return nil, nil
	}
	var pred BinaryPredicate
	switch m[2] {
	case "==":
		pred = EqualBinary()
	case "!=":
		pred = NotEqualBinary()
	case "<":
		pred = LessBinary()
	case "<=":
		pred = LessEqBinary()
	case ">":
		pred = GreaterBinary()
	case ">=":
		pred = GreaterEqBinary()
	}
	return &ParsedConstraint{Vars: []string{m[1], m[3]}, Binary: pred}, nil
}

// Rule 4: chained ordering "V1 < V2 < ... Vn" (n >= 3). A uniform chain
// lowers to the ordering factories; a mixed chain keeps its per-link
// operators as pairwise comparisons.
func parseChainedOrdering(s string, decl map[string]bool) (*ParsedConstraint, error) {
	if !chainRe.MatchString(s) {
		return nil, nil
	}
	names := identTokenRe.FindAllString(s, -1)
	for _, name := range names {
		if !decl[name] {
			return nil, nil
		}
	}
	ops := chainOpRe.FindAllString(s, -1)
	uniform := true
	for _, op := range ops[1:] {
		if op != ops[0] {
			uniform = false
			break
		}
	}
	if uniform {
		var pred NaryPredicate
		switch ops[0] {
		case "<":
			pred = StrictlyAscending(names)
		case "<=":
			pred = Ascending(names)
		case ">":
			pred = StrictlyDescending(names)
		case ">=":
			pred = Descending(names)
		}
		return classify(uniqueNames(names), pred), nil
	}
	pred := NaryPredicate(func(asg Assignment) bool {
		for i, op := range ops {
			a, aok := asg[names[i]]
			b, bok := asg[names[i+1]]
			if !aok || !bok {
				return true
			}
			cmp, ok := compareValues(a, b)
			if !ok {
				return false
			}
			switch op {
			case "<":
				ok = cmp < 0
			case "<=":
				ok = cmp <= 0
			case ">":
				ok = cmp > 0
			case ">=":
				ok = cmp >= 0
			}
			if !ok {
				return false
			}
		}
		return true
	})
	return classify(uniqueNames(names), pred), nil
}

// parseLiteral reads a constant operand: a number or a quoted string.
func parseLiteral(s string) (Value, bool) {
	if numberRe.MatchString(s) {
		if strings.ContainsAny(s, ".") {
			f, _ := strconv.ParseFloat(s, 64)
			return NewReal(f), true
		}
		n, _ := strconv.ParseInt(s, 10, 64)
		return NewInt(n), true
	}
	if len(s) >= 2 && ((s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"')) {
		return NewText(s[1 : len(s)-1]), true
	}
	return Value{}, false
}

// Rule 5: variable against a constant, "V op c" or "c op V".
func parseVarConstant(s string, decl map[string]bool) (*ParsedConstraint, error) {
	for _, op := range []string{"==", "!=", "<=", ">=", "<", ">"} {
		lhs, rhs, ok := splitOnce(s, op)
		if !ok {
			continue
		}
		name, lit := lhs, rhs
		flipped := false
		if !decl[name] {
			name, lit = rhs, lhs
			flipped = true
		}
		if !decl[name] {
			continue
		}
		c, ok := parseLiteral(lit)
		if !ok {
			continue
		}
		cmpOp := op
		if flipped {
			cmpOp = flipOperator(op)
		}
		pred := compareToConstant(name, cmpOp, c)
		return &ParsedConstraint{Vars: []string{name}, Nary: pred}, nil
	}
	return nil, nil
}

// compareToConstant builds the unary predicate for rule 5.
func compareToConstant(name, op string, c Value) NaryPredicate {
	return func(asg Assignment) bool {
		v, ok := asg[name]
		if !ok {
			return true
		}
		switch op {
		case "==":
			return valuesEqual(v, c)
		case "!=":
			return !valuesEqual(v, c)
		}
		cmp, ok := compareValues(v, c)
		if !ok {
			return false
		}
		switch op {
		case "<":
			return cmp < 0
		case "<=":
			return cmp <= 0
		case ">":
			return cmp > 0
		case ">=":
			return cmp >= 0
		}
		return false
	}
}

// flipOperator mirrors a comparison for "c op V" forms.
func flipOperator(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	}
	return op
}

// Rule 6: variable equation "V1 + V2 + ... == V" or "V1 * V2 * ... == V"
// (either side order) lowers to variable-sum / variable-product.
func parseVariableEquation(s string, decl map[string]bool) (*ParsedConstraint, error) {
	lhs, rhs, ok := splitOnce(s, "==")
	if !ok {
		return nil, nil
	}
	exprSide, varSide := lhs, rhs
	if decl[strings.TrimSpace(lhs)] && !decl[strings.TrimSpace(rhs)] {
		exprSide, varSide = rhs, lhs
	}
	result := strings.TrimSpace(varSide)
	if !decl[result] {
		return nil, nil
	}
	if terms, ok := parseSum(exprSide, decl); ok && len(terms) >= 2 && unitCoefficients(terms) {
		operands, _ := termVars(terms)
		vars := uniqueNames(append(append([]string(nil), operands...), result))
		return classify(vars, VariableSum(result, operands)), nil
	}
	if operands, ok := parseProduct(exprSide, decl); ok {
		vars := uniqueNames(append(append([]string(nil), operands...), result))
		return classify(vars, VariableProduct(result, operands)), nil
	}
	return nil, nil
}

// unitCoefficients reports whether every term has multiplier 1.
func unitCoefficients(terms []sumTerm) bool {
	for _, t := range terms {
		if t.coeff != 1 {
			return false
		}
	}
	return true
}

// Rule 7: arithmetic equality "expr == c" with a simple sum or product
// form. Complex expressions fall through to the generic evaluator.
func parseArithmeticEquality(s string, decl map[string]bool) (*ParsedConstraint, error) {
	lhs, rhs, ok := splitOnce(s, "==")
	if !ok {
		return nil, nil
	}
	exprSide, constSide := lhs, rhs
	if numberRe.MatchString(strings.TrimSpace(lhs)) {
		exprSide, constSide = rhs, lhs
	}
	constSide = strings.TrimSpace(constSide)
	if !numberRe.MatchString(constSide) {
		return nil, nil
	}
	target, _ := strconv.ParseFloat(constSide, 64)
	if terms, ok := parseSum(exprSide, decl); ok {
		vars, multipliers := termVars(terms)
		return classify(uniqueNames(vars), ExactSum(vars, target, multipliers...)), nil
	}
	if vars, ok := parseProduct(exprSide, decl); ok {
		return classify(uniqueNames(vars), ExactProduct(vars, target)), nil
	}
	return nil, nil
}

// Rule 8: arithmetic inequality "expr op c" routed to the min/max
// factories, with strict operators lowered by an epsilon offset.
func parseArithmeticInequality(s string, decl map[string]bool) (*ParsedConstraint, error) {
	for _, op := range []string{"<=", ">=", "<", ">"} {
		lhs, rhs, ok := splitOnce(s, op)
		if !ok {
			continue
		}
		exprSide, constSide, cmpOp := lhs, rhs, op
		if numberRe.MatchString(strings.TrimSpace(lhs)) {
			exprSide, constSide, cmpOp = rhs, lhs, flipOperator(op)
		}
		constSide = strings.TrimSpace(constSide)
		if !numberRe.MatchString(constSide) {
			continue
		}
		bound, _ := strconv.ParseFloat(constSide, 64)
		if terms, ok := parseSum(exprSide, decl); ok {
			vars, multipliers := termVars(terms)
			var pred NaryPredicate
			switch cmpOp {
			case "<=":
				pred = MaxSum(vars, bound, multipliers...)
			case "<":
				pred = MaxSum(vars, bound-epsilon, multipliers...)
			case ">=":
				pred = MinSum(vars, bound, multipliers...)
			case ">":
				pred = MinSum(vars, bound+epsilon, multipliers...)
			}
			return classify(uniqueNames(vars), pred), nil
		}
		if vars, ok := parseProduct(exprSide, decl); ok {
			var pred NaryPredicate
			switch cmpOp {
			case "<=":
				pred = MaxProduct(vars, bound)
			case "<":
				pred = MaxProduct(vars, bound-epsilon)
			case ">=":
				pred = MinProduct(vars, bound)
			case ">":
				pred = MinProduct(vars, bound+epsilon)
			}
			return classify(uniqueNames(vars), pred), nil
		}
	}
	return nil, nil
}

// Rule 9: set membership "V in [...]" / "V not in [...]". List items may
// be numbers, quoted strings or bare words (read as symbols).
func parseSetMembership(s string, decl map[string]bool) (*ParsedConstraint, error) {
	m := setRe.FindStringSubmatch(s)
	if m == nil || !decl[m[1]] {
		return nil, nil
	}
	set, err := parseSetLiteral(m[3], s)
	if err != nil {
		return nil, err
	}
	name := m[1]
	vars := []string{name}
	if m[2] == "" {
		return &ParsedConstraint{Vars: vars, Nary: InSet(vars, set)}, nil
	}
	return &ParsedConstraint{Vars: vars, Nary: NotInSet(vars, set)}, nil
}

// parseSetLiteral reads the comma-separated items of a set literal.
func parseSetLiteral(body, src string) ([]Value, error) {
	var set []Value
	body = strings.TrimSpace(body)
	if body == "" {
		return set, nil
	}
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		if v, ok := parseLiteral(item); ok {
			set = append(set, v)
			continue
		}
		if identTokenRe.FindString(item) == item && item != "" {
			set = append(set, NewSymbol(item))
			continue
		}
		return nil, fmt.Errorf("%w: bad set element %q in %q", ErrParse, item, src)
	}
	return set, nil
}

// Rule 10: fallback through the generic evaluator. The expression is
// compiled once; each evaluation substitutes the native representation
// of the current values. Runtime errors and non-boolean results count as
// violations.
func parseFallback(s string, vars []string) (*ParsedConstraint, error) {
	program, err := expr.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParse, s, err)
	}
	if len(vars) == 2 {
		x, y := vars[0], vars[1]
		pred := BinaryPredicate(func(a, b Value) bool {
			out, err := expr.Run(program, map[string]any{x: a.toNative(), y: b.toNative()})
			if err != nil {
				return false
			}
			b2, ok := out.(bool)
			return ok && b2
		})
		return &ParsedConstraint{Vars: vars, Binary: pred}, nil
	}
	pred := NaryPredicate(func(asg Assignment) bool {
		env := make(map[string]any, len(vars))
		for _, name := range vars {
			v, ok := asg[name]
			if !ok {
				return true
			}
			env[name] = v.toNative()
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return false
		}
		b, ok := out.(bool)
		return ok && b
	})
	return &ParsedConstraint{Vars: vars, Nary: pred}, nil
}

// splitOnce splits s at the first occurrence of op (parentheses are not
// taken into account), rejecting
// positions where a one-character operator is actually part of a
// two-character one. ok is false when op does not occur or either side
// would be empty.
func splitOnce(s, op string) (lhs, rhs string, ok bool) {
	for i := 0; i+len(op) <= len(s); i++ {
		if s[i:i+len(op)] != op {
			continue
		}
		if len(op) == 1 {
			if i+1 < len(s) && s[i+1] == '=' {
				continue
			}
			if i > 0 && (s[i-1] == '<' || s[i-1] == '>' || s[i-1] == '=' || s[i-1] == '!') {
				continue
			}
		}
		lhs = strings.TrimSpace(s[:i])
		rhs = strings.TrimSpace(s[i+len(op):])
		if lhs == "" || rhs == "" {
			return "", "", false
		}
		return lhs, rhs, true
	}
	return "", "", false
}

// uniqueNames deduplicates while preserving first-appearance order.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
