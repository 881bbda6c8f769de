// Package domain holds the core model of the engine: the closed task
// definition variants, the per-run context shared by all tasks, the error
// taxonomy, and the lifecycle events observers can hook into.
//
// The package is dependency-light on purpose. Everything that performs I/O
// lives behind the capability interfaces (EventBus, ProcessRunner) or in
// the adapters.
package domain
