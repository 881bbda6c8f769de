package tasks

import (
	"github.com/tideloom/tideloom/internal/adapters/openapi"
	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/ports"
	"github.com/tideloom/tideloom/pkg/registry"
)

// Deps carries the shared collaborators handlers need at construction time.
// Per-run capabilities (HTTP client, event bus, process runner) come from
// the run context instead.
type Deps struct {
	Evaluator ports.Evaluator

	// OpenAPI resolves operationIds for call tasks of type "openapi".
	// Nil disables that call type.
	OpenAPI *openapi.Resolver
}

// Register wires every builtin atomic handler into the registry.
func Register(reg *registry.Registry, deps Deps) {
	reg.Register(domain.KindSet, setHandler(deps))
	reg.Register(domain.KindRaise, raiseHandler(deps))
	reg.Register(domain.KindWait, waitHandler())
	reg.Register(domain.KindEmit, emitHandler(deps))
	reg.Register(domain.KindListen, listenHandler())
	reg.Register(domain.KindCall, callHandler(deps))
	reg.Register(domain.KindRun, runHandler(deps))
}
