package ports

import (
	"context"

	"github.com/tideloom/tideloom/pkg/domain"
)

// TaskHandler is the atomic task contract: one implementation per atomic
// kind, registered by kind tag. Run consumes one value and produces one
// value, or reports failure as an error (never a panic), so composites can
// apply their propagation and recovery policies uniformly. Handlers must
// observe ctx cancellation at suspension points.
type TaskHandler interface {
	Run(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error)
}

// HandlerFunc adapts a plain function to the TaskHandler interface.
type HandlerFunc func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error)

// Run implements TaskHandler.
func (f HandlerFunc) Run(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
	return f(ctx, task, rc, input)
}
