package runtime

import (
	"context"

	"github.com/tideloom/tideloom/pkg/domain"
)

// runSequence executes a task list strictly in order, threading each output
// into the next input. The empty list is the identity: output == input.
// The first child failure aborts the remaining siblings.
func (e *Executor) runSequence(ctx context.Context, tasks domain.TaskList, rc *domain.RunContext, input any) (any, error) {
	current := input
	for _, item := range tasks {
		out, err := e.named(ctx, item, rc, current)
		if err != nil {
			return nil, err
		}
		current = out
	}
	return current, nil
}
