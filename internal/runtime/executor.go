package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tideloom/tideloom/internal/logging"
	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/ports"
	"github.com/tideloom/tideloom/pkg/registry"
)

// Executor is the recursive task dispatcher: the single entry point through
// which every task, atomic or composite, executes. Composites call back
// into Execute for each child, so nesting depth is limited only by the
// goroutine's dynamically grown stack, never by a fixed frame budget.
type Executor struct {
	handlers *registry.Registry
	eval     ports.Evaluator
	logger   *slog.Logger
	hooks    domain.Hooks
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithEvaluator swaps the condition engine implementation.
func WithEvaluator(ev ports.Evaluator) Option {
	return func(e *Executor) { e.eval = ev }
}

// WithHooks attaches lifecycle callbacks for observability.
func WithHooks(h domain.Hooks) Option {
	return func(e *Executor) { e.hooks = h }
}

// New creates an executor dispatching atomic kinds to the given registry.
func New(handlers *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		handlers: handlers,
		eval:     expr.New(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunWorkflow validates and executes a whole workflow, rooting the
// breadcrumb path at the workflow name.
func (e *Executor) RunWorkflow(ctx context.Context, wf *domain.Workflow, rc *domain.RunContext, input any) (any, error) {
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "workflow start", "workflow", wf.Document.Name, "run_id", rc.RunID)
	out, err := e.named(ctx, domain.NamedTask{Name: wf.Document.Name, Task: wf.Root()}, rc, input)
	if err != nil {
		e.logger.WarnContext(ctx, "workflow failed", "workflow", wf.Document.Name, "run_id", rc.RunID, "err", err)
		return nil, err
	}
	e.logger.InfoContext(ctx, "workflow done", "workflow", wf.Document.Name, "run_id", rc.RunID)
	return out, nil
}

// Execute dispatches one task by its kind variant. Atomic kinds delegate to
// the registered handler; composite kinds delegate to the matching
// combinator, which recurses back into Execute per child. Every path
// terminates in a value or an error; the switch is exhaustive over the
// closed kind set so an unknown kind is a validation failure, not a panic.
func (e *Executor) Execute(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
	if err := cancelCause(ctx); err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &domain.ValidationError{Message: "nil task"}
	}

	switch task.Kind {
	case domain.KindCall, domain.KindSet, domain.KindEmit, domain.KindListen,
		domain.KindRaise, domain.KindWait, domain.KindRun:
		return e.atomic(ctx, task, rc, input)
	case domain.KindDo:
		if task.Do == nil {
			return nil, missingVariant(task.Kind)
		}
		return e.runSequence(ctx, task.Do.Tasks, rc, input)
	case domain.KindFork:
		if task.Fork == nil {
			return nil, missingVariant(task.Kind)
		}
		return e.runFork(ctx, task.Fork, rc, input)
	case domain.KindFor:
		if task.For == nil {
			return nil, missingVariant(task.Kind)
		}
		return e.runFor(ctx, task.For, rc, input)
	case domain.KindSwitch:
		if task.Switch == nil {
			return nil, missingVariant(task.Kind)
		}
		return e.runSwitch(ctx, task.Switch, rc, input)
	case domain.KindTry:
		if task.Try == nil {
			return nil, missingVariant(task.Kind)
		}
		return e.runTry(ctx, task.Try, rc, input)
	default:
		return nil, &domain.ValidationError{Message: "unknown task kind \"" + string(task.Kind) + "\""}
	}
}

func (e *Executor) atomic(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
	h, ok := e.handlers.Lookup(task.Kind)
	if !ok {
		return nil, &domain.ValidationError{Message: "no handler registered for kind \"" + string(task.Kind) + "\""}
	}
	out, err := h.Run(ctx, task, rc, input)
	if err != nil {
		if cause := cancelCause(ctx); cause != nil && !isTagged(err) {
			return nil, cause
		}
		return nil, err
	}
	return out, nil
}

// named runs one child of a composite, annotating failures with the child's
// name and firing the lifecycle hooks.
func (e *Executor) named(ctx context.Context, nt domain.NamedTask, rc *domain.RunContext, input any) (any, error) {
	start := time.Now()
	event := &domain.TaskEvent{Timestamp: start, RunID: rc.RunID, Name: nt.Name, Kind: nt.Task.Kind}
	if e.hooks.OnTaskStart != nil {
		e.hooks.OnTaskStart(ctx, event)
	}
	e.logger.DebugContext(ctx, "task start", "task", nt.Name, "kind", nt.Task.Kind)

	out, err := e.Execute(ctx, nt.Task, rc, input)
	event.Duration = time.Since(start)
	if err != nil {
		err = locate(nt.Name, err)
		event.Err = err
		if e.hooks.OnTaskError != nil {
			e.hooks.OnTaskError(ctx, event)
		}
		e.logger.WarnContext(ctx, "task failed", "task", nt.Name, "kind", nt.Task.Kind, "err", err)
		return nil, err
	}

	if e.hooks.OnTaskEnd != nil {
		e.hooks.OnTaskEnd(ctx, event)
	}
	e.logger.DebugContext(ctx, "task done", "task", nt.Name, "kind", nt.Task.Kind, "took", event.Duration)
	return out, nil
}

// locate prepends name to the breadcrumb of execution failures. Validation
// and evaluation errors keep their own identity and location.
func locate(name string, err error) error {
	var valErr *domain.ValidationError
	var evalErr *domain.EvaluationError
	if errors.As(err, &valErr) || errors.As(err, &evalErr) {
		return err
	}
	return domain.Failed(name, err)
}

// cancelCause maps context termination onto the engine error taxonomy.
func cancelCause(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return domain.NewExecutionError(domain.ErrTimeout, "", "deadline exceeded")
	default:
		return domain.Cancelled("")
	}
}

// isTagged reports whether err already belongs to the engine taxonomy.
func isTagged(err error) bool {
	var exec *domain.ExecutionError
	var valErr *domain.ValidationError
	var evalErr *domain.EvaluationError
	return errors.As(err, &exec) || errors.As(err, &valErr) || errors.As(err, &evalErr)
}

func missingVariant(kind domain.Kind) error {
	return &domain.ValidationError{Message: "kind \"" + string(kind) + "\" has no matching definition"}
}
