package ports

import "github.com/tideloom/tideloom/pkg/expr"

// Evaluator is the condition engine contract consumed by the executor for
// switch predicates, for-loop sources and guards, and expression-valued
// task fields. Implementations must be total and side-effect free: no I/O,
// no blocking, every failure surfaced as a domain.EvaluationError.
type Evaluator interface {
	// Eval resolves an expression to a value against the environment.
	Eval(src string, env expr.Env) (any, error)

	// Bool resolves a predicate; non-boolean results are an error.
	Bool(src string, env expr.Env) (bool, error)

	// Resolve evaluates v if it is an expression-shaped string ("${ ... }")
	// and returns it unchanged otherwise, descending into maps and slices.
	Resolve(v any, env expr.Env) (any, error)
}
