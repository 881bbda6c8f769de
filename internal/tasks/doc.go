// Package tasks holds the builtin atomic task handlers, one per atomic
// kind. Each handler implements the uniform ports.TaskHandler contract and
// reaches external capabilities only through the run context, so the engine
// itself stays agnostic to what an atomic task does.
package tasks
