package runtime

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
)

const (
	defaultItemVar  = "item"
	defaultIndexVar = "index"
)

// runFor iterates the collection produced by the source expression, running
// the body once per item in sequence order with the accumulated value as
// input. A per-iteration overlay binds the item and index variables; body
// writes other than the bindings persist to the outer context, loops being
// sequential. Zero iterations (empty collection, or while-guard false on
// the first check) return the original input unchanged.
func (e *Executor) runFor(ctx context.Context, loop *domain.ForTask, rc *domain.RunContext, input any) (any, error) {
	items, err := e.collection(loop.In, expr.NewEnv(input, rc))
	if err != nil {
		return nil, err
	}

	itemVar := loop.Each
	if itemVar == "" {
		itemVar = defaultItemVar
	}
	indexVar := loop.At
	if indexVar == "" {
		indexVar = defaultIndexVar
	}

	acc := input
	for i, item := range items {
		if err := cancelCause(ctx); err != nil {
			return nil, err
		}

		scope := rc.Branch()
		scope.SetVar(itemVar, item)
		scope.SetVar(indexVar, i)

		env := expr.NewEnv(acc, scope).WithItem(item, i)
		if loop.While != "" {
			proceed, err := e.eval.Bool(loop.While, env)
			if err != nil {
				return nil, err
			}
			if !proceed {
				break
			}
		}

		out, err := e.runSequence(ctx, loop.Do, scope, acc)
		if err != nil {
			return nil, err
		}
		acc = out

		for k, v := range scope.Writes() {
			if k == itemVar || k == indexVar {
				continue
			}
			rc.SetVar(k, v)
		}
	}
	return acc, nil
}

// collection resolves the loop source to an ordered item slice. A nil
// result iterates zero times; anything that is not a sequence is an
// evaluation failure.
func (e *Executor) collection(src string, env expr.Env) ([]any, error) {
	out, err := e.eval.Eval(src, env)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	if coll, ok := out.([]any); ok {
		return coll, nil
	}
	// Builtins like ranges and map() produce typed slices ([]int and
	// friends), not []any.
	v := reflect.ValueOf(out)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		items := make([]any, v.Len())
		for i := range items {
			items[i] = v.Index(i).Interface()
		}
		return items, nil
	}
	return nil, &domain.EvaluationError{
		Expression: src,
		Cause:      fmt.Errorf("collection source produced %T, want a sequence", out),
	}
}
