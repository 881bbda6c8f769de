package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an ExecutionError. Raise tasks may introduce
// user-defined kinds beyond this list; the catch filter matches on the
// string value either way.
type ErrorKind string

const (
	ErrTaskFailed      ErrorKind = "taskFailed"
	ErrCancelled       ErrorKind = "cancelled"
	ErrTimeout         ErrorKind = "timeout"
	ErrRetryExhausted  ErrorKind = "retryExhausted"
	ErrAggregateFailed ErrorKind = "aggregateFailed"
)

// ExecutionError is the tagged failure of a task, carrying the breadcrumb
// path of task names from the root down to the failure site. Every engine
// path terminates in either a value or one of these; nothing panics across
// the dispatch boundary.
type ExecutionError struct {
	Kind    ErrorKind
	Path    []string
	Message string
	Cause   error

	// Branches holds the individual branch failures of a fork in all mode
	// (Kind == ErrAggregateFailed).
	Branches []error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "/"))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// Is matches execution errors by kind, so errors.Is works with
// sentinel-style comparisons.
func (e *ExecutionError) Is(target error) bool {
	var other *ExecutionError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// NewExecutionError builds a failure of the given kind located at task name.
func NewExecutionError(kind ErrorKind, name, message string) *ExecutionError {
	e := &ExecutionError{Kind: kind, Message: message}
	if name != "" {
		e.Path = []string{name}
	}
	return e
}

// Failed wraps an arbitrary error as a task failure at the named site.
// ExecutionErrors pass through with the name prepended so the breadcrumb
// grows outward; everything else becomes ErrTaskFailed.
func Failed(name string, err error) *ExecutionError {
	var exec *ExecutionError
	if errors.As(err, &exec) {
		return exec.at(name)
	}
	return &ExecutionError{Kind: ErrTaskFailed, Path: []string{name}, Cause: err}
}

// at returns a copy with name prepended to the breadcrumb path.
func (e *ExecutionError) at(name string) *ExecutionError {
	cp := *e
	cp.Path = append([]string{name}, e.Path...)
	return &cp
}

// Cancelled reports a cooperative cancellation observed at the named task.
func Cancelled(name string) *ExecutionError {
	return NewExecutionError(ErrCancelled, name, "execution cancelled")
}

// Aggregate combines the failures of several fork branches into one error.
func Aggregate(name string, branchErrs []error) *ExecutionError {
	msgs := make([]string, len(branchErrs))
	for i, err := range branchErrs {
		msgs[i] = err.Error()
	}
	e := &ExecutionError{
		Kind:     ErrAggregateFailed,
		Message:  fmt.Sprintf("%d branch(es) failed: %s", len(branchErrs), strings.Join(msgs, "; ")),
		Branches: branchErrs,
	}
	if name != "" {
		e.Path = []string{name}
	}
	return e
}

// ValidationError reports a malformed or unknown task definition. It is
// raised before any side effect of the offending task runs.
type ValidationError struct {
	Path    []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return "invalid workflow: " + e.Message
	}
	return fmt.Sprintf("invalid task %s: %s", strings.Join(e.Path, "/"), e.Message)
}

// EvaluationError reports a condition-expression failure. It is distinct
// from task execution errors and never retried.
type EvaluationError struct {
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expression, e.Cause)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }
