// Package cli assembles the engine and its capabilities for the commands
// in cmd/tideloom. It is the sole place where adapters, handlers and the
// executor meet.
package cli

import (
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/tideloom/tideloom/internal/adapters/events"
	"github.com/tideloom/tideloom/internal/adapters/openapi"
	"github.com/tideloom/tideloom/internal/adapters/process"
	"github.com/tideloom/tideloom/internal/config"
	"github.com/tideloom/tideloom/internal/runtime"
	"github.com/tideloom/tideloom/internal/tasks"
	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
	"github.com/tideloom/tideloom/pkg/registry"
)

// Factory wires executors and run contexts from host configuration.
type Factory struct {
	cfg    *config.Config
	logger *slog.Logger
	bus    domain.EventBus
	runner domain.ProcessRunner
}

// NewFactory builds the shared capabilities once: the event bus (redis
// when configured, in-memory otherwise) and the process allow-list.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{cfg: cfg, logger: logger}

	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		f.bus = events.NewRedisBus(client)
		logger.Info("event bus: redis", "addr", cfg.Redis.Addr)
	} else {
		f.bus = events.NewMemoryBus()
	}

	commands := make(map[string]process.Command, len(cfg.Processes))
	for name, pc := range cfg.Processes {
		commands[name] = process.Command{Path: pc.Command, Args: pc.Args}
	}
	f.runner = process.New(process.WithCommands(commands))

	return f
}

// NewExecutor builds an executor with the builtin handlers registered.
func (f *Factory) NewExecutor(opts ...runtime.Option) *runtime.Executor {
	reg := registry.New()
	tasks.Register(reg, tasks.Deps{
		Evaluator: expr.New(),
		OpenAPI:   openapi.NewResolver(),
	})
	opts = append([]runtime.Option{runtime.WithLogger(f.logger)}, opts...)
	return runtime.New(reg, opts...)
}

// NewRunContext builds the per-run context, pre-populated with the host's
// capabilities.
func (f *Factory) NewRunContext(workflow string) *domain.RunContext {
	rc := domain.NewRunContext(workflow)
	rc.Events = f.bus
	rc.Processes = f.runner
	return rc
}
