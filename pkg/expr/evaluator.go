package expr

import (
	"fmt"
	"strings"
	"sync"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tideloom/tideloom/pkg/domain"
)

// Env is the read-only environment an expression evaluates against. A
// failure captured by a catch block is not a separate key; it appears
// under Context, bound to the configured error variable.
type Env struct {
	Input   any
	Context map[string]any
	Item    any
	Index   int
}

// NewEnv builds the environment for a task execution from its input and a
// variable snapshot of the run context.
func NewEnv(input any, rc *domain.RunContext) Env {
	env := Env{Input: input}
	if rc != nil {
		env.Context = rc.Vars()
	}
	return env
}

// WithItem returns a copy scoped to one loop iteration.
func (e Env) WithItem(item any, index int) Env {
	e.Item = item
	e.Index = index
	return e
}

func (e Env) toMap() map[string]any {
	return map[string]any{
		"input":   e.Input,
		"context": e.Context,
		"item":    e.Item,
		"index":   e.Index,
	}
}

// Evaluator compiles and runs expressions, caching compiled programs per
// source string. The zero value is not usable; call New.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// New creates an evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// IsExpression reports whether s carries the "${ ... }" expression marker.
func IsExpression(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}")
}

// Unwrap strips the expression marker, returning the bare source.
func Unwrap(s string) string {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "${")
	trimmed = strings.TrimSuffix(trimmed, "}")
	return strings.TrimSpace(trimmed)
}

func (ev *Evaluator) program(src string) (*vm.Program, error) {
	ev.mu.RLock()
	p, ok := ev.cache[src]
	ev.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := exprlang.Compile(src, exprlang.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	ev.mu.Lock()
	ev.cache[src] = p
	ev.mu.Unlock()
	return p, nil
}

// Eval resolves src to a value. Src may carry the "${ ... }" marker or be
// bare expression source.
func (ev *Evaluator) Eval(src string, env Env) (any, error) {
	source := src
	if IsExpression(source) {
		source = Unwrap(source)
	}

	p, err := ev.program(source)
	if err != nil {
		return nil, &domain.EvaluationError{Expression: src, Cause: err}
	}

	out, err := exprlang.Run(p, env.toMap())
	if err != nil {
		return nil, &domain.EvaluationError{Expression: src, Cause: err}
	}
	return out, nil
}

// Bool resolves a predicate. A non-boolean result is an evaluation error,
// not a silent coercion.
func (ev *Evaluator) Bool(src string, env Env) (bool, error) {
	out, err := ev.Eval(src, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, &domain.EvaluationError{
			Expression: src,
			Cause:      fmt.Errorf("predicate produced %T, want bool", out),
		}
	}
	return b, nil
}

// Resolve walks v, evaluating every string carrying the expression marker.
// Maps and slices are rebuilt so the original value stays untouched; plain
// values pass through as-is.
func (ev *Evaluator) Resolve(v any, env Env) (any, error) {
	switch val := v.(type) {
	case string:
		if IsExpression(val) {
			return ev.Eval(val, env)
		}
		return val, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			resolved, err := ev.Resolve(item, env)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := ev.Resolve(item, env)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}
