package domain

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is the unit carried by the event bus between emit and listen tasks.
type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Source string    `json:"source,omitempty"`
	Time   time.Time `json:"time"`
	Data   any       `json:"data,omitempty"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		Source: source,
		Time:   time.Now().UTC(),
		Data:   data,
	}
}

// EventBus is the pub/sub capability consumed by emit and listen tasks.
// Subscribe returns a channel of matching events plus a cancel func the
// caller must invoke when done.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, eventType string) (<-chan Event, func(), error)
}

// ProcessRunner executes an allow-listed external command by registered
// name, returning its decoded output.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args map[string]any) (any, error)
}

// RunContext is the shared-by-reference state of one workflow run: named
// variables plus the capability handles atomic tasks need. One RunContext
// exists per run and is never shared across runs.
//
// Variables are guarded by a mutex; reads are always safe. Writes inside a
// fork branch land in a branch-local overlay (see Branch) and only reach
// the parent through Merge, under the join discipline the fork applies.
type RunContext struct {
	RunID    string
	Workflow string

	// Capabilities. Nil handles disable the corresponding task kinds.
	HTTP      *http.Client
	Events    EventBus
	Processes ProcessRunner

	mu     sync.RWMutex
	vars   map[string]any
	parent *RunContext
}

// NewRunContext creates the root context for a run.
func NewRunContext(workflow string) *RunContext {
	return &RunContext{
		RunID:    uuid.NewString(),
		Workflow: workflow,
		HTTP:     http.DefaultClient,
		vars:     make(map[string]any),
	}
}

// SetVar stores a named variable in this context layer.
func (rc *RunContext) SetVar(key string, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.vars[key] = value
}

// Var looks up a variable, falling back through parent overlays.
func (rc *RunContext) Var(key string) (any, bool) {
	rc.mu.RLock()
	v, ok := rc.vars[key]
	rc.mu.RUnlock()
	if ok {
		return v, true
	}
	if rc.parent != nil {
		return rc.parent.Var(key)
	}
	return nil, false
}

// Vars returns a point-in-time snapshot of all visible variables, with
// overlay values shadowing the parent's.
func (rc *RunContext) Vars() map[string]any {
	var snapshot map[string]any
	if rc.parent != nil {
		snapshot = rc.parent.Vars()
	} else {
		snapshot = make(map[string]any)
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	for k, v := range rc.vars {
		snapshot[k] = v
	}
	return snapshot
}

// Branch creates a copy-on-write overlay for one fork branch. The overlay
// shares capabilities and sees the parent's variables, but its writes stay
// local until Merge.
func (rc *RunContext) Branch() *RunContext {
	return &RunContext{
		RunID:     rc.RunID,
		Workflow:  rc.Workflow,
		HTTP:      rc.HTTP,
		Events:    rc.Events,
		Processes: rc.Processes,
		vars:      make(map[string]any),
		parent:    rc,
	}
}

// Writes returns a copy of this layer's local writes, excluding anything
// inherited from the parent.
func (rc *RunContext) Writes() map[string]any {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	writes := make(map[string]any, len(rc.vars))
	for k, v := range rc.vars {
		writes[k] = v
	}
	return writes
}

// Merge applies this overlay's local writes to its parent. Call order
// defines the conflict policy: the fork join merges branches in declared
// order, so later-declared branches overwrite earlier ones.
func (rc *RunContext) Merge() {
	if rc.parent == nil {
		return
	}
	for k, v := range rc.Writes() {
		rc.parent.SetVar(k, v)
	}
}
