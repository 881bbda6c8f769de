package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes local processes for run tasks. It follows a strict
// registry pattern: only allow-listed commands execute, and task args reach
// the process as environment variables rather than command-line flags, so a
// workflow document cannot inject flags or shell syntax.
type Runner struct {
	registry map[string]Command
	baseDir  string
}

// Command is one allow-listed executable with its fixed argument template.
type Command struct {
	Path string
	Args []string
}

// Option configures the runner.
type Option func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) Option {
	return func(r *Runner) { r.baseDir = dir }
}

// WithCommands populates the allow-list from configuration.
func WithCommands(commands map[string]Command) Option {
	return func(r *Runner) {
		for name, cmd := range commands {
			r.registry[name] = cmd
		}
	}
}

// New creates a process runner.
func New(opts ...Option) *Runner {
	r := &Runner{registry: make(map[string]Command)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name, path string, args ...string) {
	r.registry[name] = Command{Path: path, Args: args}
}

// Run executes a registered command. Args are exported as TIDELOOM_ARG_*
// environment variables, primitives formatted directly and structured
// values JSON-encoded. Stdout is JSON-decoded when possible; otherwise the
// trimmed text is returned.
func (r *Runner) Run(ctx context.Context, name string, args map[string]any) (any, error) {
	command, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("process not registered: %s", name)
	}

	cmd := exec.CommandContext(ctx, command.Path, command.Args...)
	cmd.Dir = r.baseDir

	env := cmd.Environ()
	for k, v := range args {
		env = append(env, fmt.Sprintf("TIDELOOM_ARG_%s=%s", strings.ToUpper(k), encodeArg(v)))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("process %s: %w: %s", name, err, detail)
		}
		return nil, fmt.Errorf("process %s: %w", name, err)
	}

	return decodeOutput(stdout.Bytes()), nil
}

func encodeArg(v any) string {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", v)
	}
}

func decodeOutput(raw []byte) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return decoded
	}
	return trimmed
}
