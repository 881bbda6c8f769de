package tasks

import (
	"context"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/ports"
)

// emitHandler publishes an event to the run's bus. The payload defaults to
// the task input when no data is configured; expressions in the data are
// resolved first. Output equals input so emits compose transparently.
func emitHandler(deps Deps) ports.HandlerFunc {
	return func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		if rc.Events == nil {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "no event bus configured for this run")
		}

		data := task.Emit.Data
		if data == nil {
			data = input
		}
		resolved, err := deps.Evaluator.Resolve(data, expr.NewEnv(input, rc))
		if err != nil {
			return nil, err
		}

		source := task.Emit.Source
		if source == "" {
			source = rc.Workflow
		}
		if err := rc.Events.Publish(ctx, domain.NewEvent(task.Emit.Type, source, resolved)); err != nil {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "publish failed: "+err.Error())
		}
		return input, nil
	}
}
