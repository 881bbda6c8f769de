package tideloom

import (
	"context"
	"log/slog"

	"github.com/tideloom/tideloom/internal/adapters/openapi"
	"github.com/tideloom/tideloom/internal/compiler"
	"github.com/tideloom/tideloom/internal/runtime"
	"github.com/tideloom/tideloom/internal/tasks"
	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/ports"
	"github.com/tideloom/tideloom/pkg/registry"
)

// Version is the library version, reported by the CLI.
const Version = "0.1.0"

// Engine is the high-level entry point for the tideloom library.
// It wraps the internal executor and provides a simplified API for
// consumers that want to parse and run workflow documents without
// assembling the registry themselves.
type Engine struct {
	executor *runtime.Executor
	parser   *compiler.Parser

	logger    *slog.Logger
	hooks     domain.Hooks
	events    domain.EventBus
	processes domain.ProcessRunner
	handlers  map[domain.Kind]ports.TaskHandler
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks fired around every task.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEventBus sets the bus that emit and listen tasks use. Without it
// those tasks fail at execution time.
func WithEventBus(bus domain.EventBus) Option {
	return func(e *Engine) {
		e.events = bus
	}
}

// WithProcessRunner sets the runner backing run tasks.
func WithProcessRunner(runner domain.ProcessRunner) Option {
	return func(e *Engine) {
		e.processes = runner
	}
}

// WithHandler overrides or adds a task handler, replacing the builtin
// one for that kind.
func WithHandler(kind domain.Kind, h ports.TaskHandler) Option {
	return func(e *Engine) {
		e.handlers[kind] = h
	}
}

// New builds an Engine with the builtin handlers registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		parser:   compiler.NewParser(),
		handlers: make(map[domain.Kind]ports.TaskHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	reg := registry.New()
	tasks.Register(reg, tasks.Deps{
		Evaluator: expr.New(),
		OpenAPI:   openapi.NewResolver(),
	})
	for kind, h := range e.handlers {
		reg.Register(kind, h)
	}

	var runtimeOpts []runtime.Option
	if e.logger != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithLogger(e.logger))
	}
	runtimeOpts = append(runtimeOpts, runtime.WithHooks(e.hooks))

	e.executor = runtime.New(reg, runtimeOpts...)
	return e
}

// Parse compiles a YAML workflow document.
func (e *Engine) Parse(data []byte) (*domain.Workflow, error) {
	return e.parser.Parse(data)
}

// Validate parses and validates a workflow document without running it.
func (e *Engine) Validate(data []byte) error {
	wf, err := e.parser.Parse(data)
	if err != nil {
		return err
	}
	return wf.Validate()
}

// Run parses a workflow document and executes it against input.
func (e *Engine) Run(ctx context.Context, data []byte, input any) (any, error) {
	wf, err := e.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return e.RunWorkflow(ctx, wf, e.newRunContext(wf.Document.Name), input)
}

// RunWorkflow executes an already-compiled workflow in the given run
// context. It satisfies the HTTP adapter's engine surface.
func (e *Engine) RunWorkflow(ctx context.Context, wf *domain.Workflow, rc *domain.RunContext, input any) (any, error) {
	return e.executor.RunWorkflow(ctx, wf, rc, input)
}

// NewRunContext builds a run context carrying the engine's capabilities.
func (e *Engine) NewRunContext(workflow string) *domain.RunContext {
	return e.newRunContext(workflow)
}

func (e *Engine) newRunContext(workflow string) *domain.RunContext {
	rc := domain.NewRunContext(workflow)
	rc.Events = e.events
	rc.Processes = e.processes
	return rc
}
