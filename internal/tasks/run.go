package tasks

import (
	"context"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/ports"
)

// runHandler executes an allow-listed external process through the run's
// process runner capability. Args may contain expressions.
func runHandler(deps Deps) ports.HandlerFunc {
	return func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		if rc.Processes == nil {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "no process runner configured for this run")
		}

		env := expr.NewEnv(input, rc)
		args := make(map[string]any, len(task.Run.Args))
		for k, v := range task.Run.Args {
			resolved, err := deps.Evaluator.Resolve(v, env)
			if err != nil {
				return nil, err
			}
			args[k] = resolved
		}

		out, err := rc.Processes.Run(ctx, task.Run.Command, args)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, domain.NewExecutionError(domain.ErrTimeout, "", "process timed out")
			} else if ctx.Err() != nil {
				return nil, domain.Cancelled("")
			}
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", err.Error())
		}
		return out, nil
	}
}
