package tasks

import (
	"context"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/ports"
)

// setHandler evaluates ordered assignments, merging each result into the
// flowing value and recording it as a run-context variable. Later
// assignments see the effect of earlier ones through the evolving input.
func setHandler(deps Deps) ports.HandlerFunc {
	return func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		out := make(map[string]any)
		if obj, ok := input.(map[string]any); ok {
			for k, v := range obj {
				out[k] = v
			}
		}

		for _, assignment := range task.Set.Assignments {
			env := expr.NewEnv(out, rc)
			value, err := deps.Evaluator.Resolve(assignment.Value, env)
			if err != nil {
				return nil, err
			}
			out[assignment.Key] = value
			rc.SetVar(assignment.Key, value)
		}
		return out, nil
	}
}
