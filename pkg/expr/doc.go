// Package expr is the condition evaluation engine. It maps an expression
// string plus the current value and a run-context snapshot to a value or a
// boolean. Evaluation is total and side-effect free: compiled programs only
// read the environment, never perform I/O, and every failure is surfaced as
// a domain.EvaluationError.
//
// Expressions are written in the expr-lang syntax and appear in workflow
// documents wrapped as "${ ... }". The environment exposes:
//
//	input    the value flowing into the current task
//	context  a snapshot of the run's named variables
//	item     the current element inside a for loop
//	index    the current position inside a for loop
//	error    the captured failure inside a try's catch block
package expr
