package tasks

import (
	"context"
	"fmt"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/ports"
)

// raiseHandler fails deliberately with the configured error kind. The
// message may itself be an expression over the current input and context.
func raiseHandler(deps Deps) ports.HandlerFunc {
	return func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		message := task.Raise.Message
		if expr.IsExpression(message) {
			resolved, err := deps.Evaluator.Eval(message, expr.NewEnv(input, rc))
			if err != nil {
				return nil, err
			}
			message = fmt.Sprintf("%v", resolved)
		}
		return nil, domain.NewExecutionError(domain.ErrorKind(task.Raise.Error), "", message)
	}
}
