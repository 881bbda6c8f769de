package domain

import "time"

// Kind identifies the variant of a task definition.
type Kind string

// Atomic task kinds perform one concrete operation each.
const (
	KindCall   Kind = "call"
	KindSet    Kind = "set"
	KindEmit   Kind = "emit"
	KindListen Kind = "listen"
	KindRaise  Kind = "raise"
	KindWait   Kind = "wait"
	KindRun    Kind = "run"
)

// Composite task kinds contain and orchestrate subtasks.
const (
	KindDo     Kind = "do"
	KindFork   Kind = "fork"
	KindFor    Kind = "for"
	KindSwitch Kind = "switch"
	KindTry    Kind = "try"
)

// Composite reports whether the kind carries subtasks.
func (k Kind) Composite() bool {
	switch k {
	case KindDo, KindFork, KindFor, KindSwitch, KindTry:
		return true
	}
	return false
}

// Task is the closed polymorphic definition of one workflow step.
// Exactly one variant field matching Kind is set (enforced by Validate).
// Tasks are immutable once constructed and shared read-only during execution.
type Task struct {
	Kind Kind `json:"kind" yaml:"kind"`

	Call   *CallTask   `json:"call,omitempty" yaml:"call,omitempty"`
	Set    *SetTask    `json:"set,omitempty" yaml:"set,omitempty"`
	Emit   *EmitTask   `json:"emit,omitempty" yaml:"emit,omitempty"`
	Listen *ListenTask `json:"listen,omitempty" yaml:"listen,omitempty"`
	Raise  *RaiseTask  `json:"raise,omitempty" yaml:"raise,omitempty"`
	Wait   *WaitTask   `json:"wait,omitempty" yaml:"wait,omitempty"`
	Run    *RunTask    `json:"run,omitempty" yaml:"run,omitempty"`

	Do     *DoTask     `json:"do,omitempty" yaml:"do,omitempty"`
	Fork   *ForkTask   `json:"fork,omitempty" yaml:"fork,omitempty"`
	For    *ForTask    `json:"for,omitempty" yaml:"for,omitempty"`
	Switch *SwitchTask `json:"switch,omitempty" yaml:"switch,omitempty"`
	Try    *TryTask    `json:"try,omitempty" yaml:"try,omitempty"`
}

// NamedTask pairs a task with the name it carries inside its parent.
// Names need not be unique; order is what matters.
type NamedTask struct {
	Name string `json:"name" yaml:"name"`
	Task *Task  `json:"task" yaml:"task"`
}

// TaskList is an ordered sequence of named tasks. It is deliberately a
// slice, not a map: execution order (Do), evaluation order (Switch) and
// declaration order (Fork merge) all depend on it.
type TaskList []NamedTask

// CallTask performs an outbound call. Type selects the protocol:
// "http" uses Method/Endpoint directly, "openapi" resolves Operation
// against the Document first.
type CallTask struct {
	Type     string            `json:"type" yaml:"type"`
	Method   string            `json:"method,omitempty" yaml:"method,omitempty"`
	Endpoint string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body     any               `json:"body,omitempty" yaml:"body,omitempty"`

	// OpenAPI call fields.
	Document  string `json:"document,omitempty" yaml:"document,omitempty"`
	Operation string `json:"operation,omitempty" yaml:"operation,omitempty"`
}

// Assignment is one ordered key/value pair of a Set task. The value may be
// an expression string; later assignments see the effect of earlier ones.
type Assignment struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// SetTask merges evaluated assignments into the flowing value and records
// them as run-context variables.
type SetTask struct {
	Assignments []Assignment `json:"assignments" yaml:"assignments"`
}

// EmitTask publishes an event to the run's event bus.
type EmitTask struct {
	Type   string `json:"type" yaml:"type"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Data   any    `json:"data,omitempty" yaml:"data,omitempty"`
}

// ListenTask blocks until an event of the given type arrives, returning its
// payload. A zero Timeout waits until the surrounding context is cancelled.
type ListenTask struct {
	To      string        `json:"to" yaml:"to"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RaiseTask fails deliberately with the configured error kind.
type RaiseTask struct {
	Error   string `json:"error" yaml:"error"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// WaitTask sleeps for the configured duration.
type WaitTask struct {
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// RunTask executes an allow-listed external process by registered name.
type RunTask struct {
	Command string         `json:"command" yaml:"command"`
	Args    map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
}

// DoTask executes its children strictly in order, threading each output
// into the next input. An empty list is the identity task.
type DoTask struct {
	Tasks TaskList `json:"tasks" yaml:"tasks"`
}

// ForkTask runs its branches concurrently. With Compete set, the first
// branch to succeed wins and the rest are cancelled; otherwise every branch
// must finish and the output maps branch name to branch output.
type ForkTask struct {
	Branches TaskList `json:"branches" yaml:"branches"`
	Compete  bool     `json:"compete,omitempty" yaml:"compete,omitempty"`
}

// ForTask iterates the collection produced by In, running the body once per
// item with the accumulated value as input. Each/At name the per-iteration
// item and index variables; While is an optional guard checked before every
// iteration.
type ForTask struct {
	Each  string   `json:"each,omitempty" yaml:"each,omitempty"`
	At    string   `json:"at,omitempty" yaml:"at,omitempty"`
	In    string   `json:"in" yaml:"in"`
	While string   `json:"while,omitempty" yaml:"while,omitempty"`
	Do    TaskList `json:"do" yaml:"do"`
}

// SwitchCase pairs a predicate with a subtask. An empty When marks the
// default case.
type SwitchCase struct {
	Name string `json:"name" yaml:"name"`
	When string `json:"when,omitempty" yaml:"when,omitempty"`
	Then *Task  `json:"then" yaml:"then"`
}

// SwitchTask evaluates cases in declared order and executes the first whose
// predicate holds. With no match and no default, input passes through
// unchanged.
type SwitchTask struct {
	Cases []SwitchCase `json:"cases" yaml:"cases"`
}

// RetryPolicy bounds re-execution of a failed try block.
type RetryPolicy struct {
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
	Delay       time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
	Multiplier  float64       `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CatchClause configures recovery for a Try task. Errors filters by error
// kind (empty matches any). As names the variable the captured error is
// exposed under, defaulting to "error".
type CatchClause struct {
	Errors []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
	As     string       `json:"as,omitempty" yaml:"as,omitempty"`
	Retry  *RetryPolicy `json:"retry,omitempty" yaml:"retry,omitempty"`
	Do     TaskList     `json:"do,omitempty" yaml:"do,omitempty"`
}

// TryTask is the sole recovery boundary: failures from the try block that
// match the catch filter are retried and/or handed to the catch block.
type TryTask struct {
	Tasks TaskList    `json:"tasks" yaml:"tasks"`
	Catch CatchClause `json:"catch" yaml:"catch"`
}

// Document carries workflow identity metadata.
type Document struct {
	DSL       string `json:"dsl" yaml:"dsl"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
}

// Workflow is a parsed workflow definition: identity metadata plus the
// top-level task list, which executes as a Do rooted at the workflow name.
type Workflow struct {
	Document Document `json:"document" yaml:"document"`
	Do       TaskList `json:"do" yaml:"do"`
}

// Root wraps the workflow's task list into a single executable task.
func (w *Workflow) Root() *Task {
	return &Task{Kind: KindDo, Do: &DoTask{Tasks: w.Do}}
}
