package dsl

import (
	"time"

	"github.com/tideloom/tideloom/pkg/domain"
)

// Step names a task inside its parent list.
func Step(name string, task *domain.Task) domain.NamedTask {
	return domain.NamedTask{Name: name, Task: task}
}

// Do builds a sequential composition of the given steps.
func Do(steps ...domain.NamedTask) *domain.Task {
	return &domain.Task{Kind: domain.KindDo, Do: &domain.DoTask{Tasks: steps}}
}

// Fork builds a parallel composition joining on every branch (all mode).
func Fork(branches ...domain.NamedTask) *domain.Task {
	return &domain.Task{Kind: domain.KindFork, Fork: &domain.ForkTask{Branches: branches}}
}

// ForkCompete builds a parallel composition where the first successful
// branch wins and the rest are cancelled.
func ForkCompete(branches ...domain.NamedTask) *domain.Task {
	return &domain.Task{Kind: domain.KindFork, Fork: &domain.ForkTask{Branches: branches, Compete: true}}
}

// Assign builds one ordered assignment for a Set task. The value may be an
// expression string ("${ ... }") or a literal.
func Assign(key string, value any) domain.Assignment {
	return domain.Assignment{Key: key, Value: value}
}

// Set builds a task merging the assignments into the flowing value.
func Set(assignments ...domain.Assignment) *domain.Task {
	return &domain.Task{Kind: domain.KindSet, Set: &domain.SetTask{Assignments: assignments}}
}

// Raise builds a task failing with the given error kind.
func Raise(kind, message string) *domain.Task {
	return &domain.Task{Kind: domain.KindRaise, Raise: &domain.RaiseTask{Error: kind, Message: message}}
}

// Wait builds a cancellable sleep.
func Wait(d time.Duration) *domain.Task {
	return &domain.Task{Kind: domain.KindWait, Wait: &domain.WaitTask{Duration: d}}
}

// Emit builds a task publishing an event to the run's bus.
func Emit(eventType, source string, data any) *domain.Task {
	return &domain.Task{Kind: domain.KindEmit, Emit: &domain.EmitTask{Type: eventType, Source: source, Data: data}}
}

// Listen builds a task waiting for the first event of the given type.
func Listen(eventType string, timeout time.Duration) *domain.Task {
	return &domain.Task{Kind: domain.KindListen, Listen: &domain.ListenTask{To: eventType, Timeout: timeout}}
}

// CallHTTP builds an HTTP call task.
func CallHTTP(method, endpoint string) *domain.Task {
	return &domain.Task{Kind: domain.KindCall, Call: &domain.CallTask{Type: "http", Method: method, Endpoint: endpoint}}
}

// Run builds a task executing a registered external process.
func Run(command string, args map[string]any) *domain.Task {
	return &domain.Task{Kind: domain.KindRun, Run: &domain.RunTask{Command: command, Args: args}}
}

// ForBuilder configures an iteration task.
type ForBuilder struct {
	task domain.ForTask
}

// For starts an iteration over the collection produced by the in
// expression.
func For(in string) *ForBuilder {
	return &ForBuilder{task: domain.ForTask{In: in}}
}

// Each names the per-iteration item variable (default "item").
func (b *ForBuilder) Each(name string) *ForBuilder {
	b.task.Each = name
	return b
}

// At names the per-iteration index variable (default "index").
func (b *ForBuilder) At(name string) *ForBuilder {
	b.task.At = name
	return b
}

// While sets the guard checked before every iteration.
func (b *ForBuilder) While(predicate string) *ForBuilder {
	b.task.While = predicate
	return b
}

// Do sets the loop body and builds the task.
func (b *ForBuilder) Do(steps ...domain.NamedTask) *domain.Task {
	b.task.Do = steps
	return &domain.Task{Kind: domain.KindFor, For: &b.task}
}

// SwitchBuilder configures a conditional branching task.
type SwitchBuilder struct {
	task domain.SwitchTask
}

// Switch starts an ordered case list.
func Switch() *SwitchBuilder {
	return &SwitchBuilder{}
}

// Case appends a predicate/subtask pair. Cases evaluate in the order they
// are added.
func (b *SwitchBuilder) Case(name, when string, then *domain.Task) *SwitchBuilder {
	b.task.Cases = append(b.task.Cases, domain.SwitchCase{Name: name, When: when, Then: then})
	return b
}

// Default appends the fall-through case.
func (b *SwitchBuilder) Default(name string, then *domain.Task) *SwitchBuilder {
	b.task.Cases = append(b.task.Cases, domain.SwitchCase{Name: name, Then: then})
	return b
}

// Build returns the switch task.
func (b *SwitchBuilder) Build() *domain.Task {
	return &domain.Task{Kind: domain.KindSwitch, Switch: &b.task}
}

// TryBuilder configures a recovery boundary.
type TryBuilder struct {
	task domain.TryTask
}

// Try starts a recovery boundary around the given steps.
func Try(steps ...domain.NamedTask) *TryBuilder {
	return &TryBuilder{task: domain.TryTask{Tasks: steps}}
}

// CatchOnly restricts the catch filter to the given error kinds.
func (b *TryBuilder) CatchOnly(kinds ...string) *TryBuilder {
	b.task.Catch.Errors = kinds
	return b
}

// As names the variable the captured error is exposed under.
func (b *TryBuilder) As(name string) *TryBuilder {
	b.task.Catch.As = name
	return b
}

// Retry sets the bounded retry policy applied before the catch block runs.
func (b *TryBuilder) Retry(maxAttempts int, delay time.Duration, multiplier float64) *TryBuilder {
	b.task.Catch.Retry = &domain.RetryPolicy{MaxAttempts: maxAttempts, Delay: delay, Multiplier: multiplier}
	return b
}

// Catch sets the recovery steps and builds the task.
func (b *TryBuilder) Catch(steps ...domain.NamedTask) *domain.Task {
	b.task.Catch.Do = steps
	return &domain.Task{Kind: domain.KindTry, Try: &b.task}
}

// Build returns the try task without a catch block; matching errors then
// only benefit from the retry policy.
func (b *TryBuilder) Build() *domain.Task {
	return &domain.Task{Kind: domain.KindTry, Try: &b.task}
}

// Workflow assembles a runnable workflow from named steps.
func Workflow(name string, steps ...domain.NamedTask) *domain.Workflow {
	return &domain.Workflow{
		Document: domain.Document{DSL: "1.0.0", Namespace: "default", Name: name, Version: "0.1.0"},
		Do:       steps,
	}
}
