package tasks

import (
	"context"
	"time"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/ports"
)

// listenHandler blocks until the first event of the configured type
// arrives, returning the event as the task's output. An optional timeout
// bounds the wait; cancellation is observed either way.
func listenHandler() ports.HandlerFunc {
	return func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		if rc.Events == nil {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "no event bus configured for this run")
		}

		events, unsubscribe, err := rc.Events.Subscribe(ctx, task.Listen.To)
		if err != nil {
			return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "subscribe failed: "+err.Error())
		}
		defer unsubscribe()

		var deadline <-chan time.Time
		if task.Listen.Timeout > 0 {
			timer := time.NewTimer(task.Listen.Timeout)
			defer timer.Stop()
			deadline = timer.C
		}

		select {
		case event, ok := <-events:
			if !ok {
				return nil, domain.NewExecutionError(domain.ErrTaskFailed, "", "event stream closed")
			}
			return map[string]any{
				"id":     event.ID,
				"type":   event.Type,
				"source": event.Source,
				"data":   event.Data,
			}, nil
		case <-deadline:
			return nil, domain.NewExecutionError(domain.ErrTimeout, "", "no event of type \""+task.Listen.To+"\" arrived in time")
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, domain.NewExecutionError(domain.ErrTimeout, "", "deadline exceeded while listening")
			}
			return nil, domain.Cancelled("")
		}
	}
}
