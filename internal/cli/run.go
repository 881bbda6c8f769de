package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tideloom/tideloom/internal/compiler"
	"github.com/tideloom/tideloom/pkg/domain"
)

// RunFile parses a workflow document, executes it with the given input,
// and returns the final output.
func (f *Factory) RunFile(ctx context.Context, path string, inputJSON string) (any, error) {
	wf, err := f.loadWorkflow(path)
	if err != nil {
		return nil, err
	}

	var input any
	if inputJSON != "" {
		if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
			return nil, fmt.Errorf("parse input: %w", err)
		}
	}

	exec := f.NewExecutor()
	rc := f.NewRunContext(wf.Document.Name)
	return exec.RunWorkflow(ctx, wf, rc, input)
}

// ValidateFile parses and validates a workflow document without running it.
func (f *Factory) ValidateFile(path string) (*domain.Workflow, error) {
	wf, err := f.loadWorkflow(path)
	if err != nil {
		return nil, err
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}

func (f *Factory) loadWorkflow(path string) (*domain.Workflow, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	return compiler.NewParser().Parse(data)
}
