package registry

import (
	"sync"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/ports"
)

// Registry manages the atomic task handlers, keyed by task kind.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.Kind]ports.TaskHandler
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[domain.Kind]ports.TaskHandler),
	}
}

// Register adds a handler for a kind.
// If a handler for the same kind exists, it is overwritten.
func (r *Registry) Register(kind domain.Kind, h ports.TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Lookup returns the handler for a kind, if one is registered.
func (r *Registry) Lookup(kind domain.Kind) (ports.TaskHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds lists the registered kinds, in no particular order.
func (r *Registry) Kinds() []domain.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]domain.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}
