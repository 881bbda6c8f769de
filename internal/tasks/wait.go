package tasks

import (
	"context"
	"time"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/ports"
)

// waitHandler sleeps for the configured duration, observing cancellation.
// Output equals input.
func waitHandler() ports.HandlerFunc {
	return func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		timer := time.NewTimer(task.Wait.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			return input, nil
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, domain.NewExecutionError(domain.ErrTimeout, "", "deadline exceeded while waiting")
			}
			return nil, domain.Cancelled("")
		}
	}
}
