// Package ports defines the contracts between the engine core and its
// collaborators: atomic task handlers, and the condition evaluation engine.
// The executor consumes these interfaces; adapters and internal/tasks
// provide them.
package ports
