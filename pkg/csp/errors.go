package csp

import "errors"

// Errors returned by the builder and the expression compiler.
// Construction errors surface eagerly; the solver itself never returns
// them, and unsatisfiability is reported as a value, not an error.
var (
	ErrDuplicateVariable = errors.New("variable already declared")
	ErrEmptyDomain       = errors.New("domain must not be empty")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrArityMismatch     = errors.New("predicate arity does not match variable count")
	ErrParse             = errors.New("cannot parse constraint expression")
)

// errInconsistent names an emptied domain during propagation. It is
// internal and currently unused: the propagator reports inconsistency as
// a false result, which search treats as a failed branch.
var errInconsistent = errors.New("domains inconsistent")
