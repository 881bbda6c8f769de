// Package compiler turns workflow documents into task trees. It is the
// collaborator sitting in front of the engine: everything past Parse is an
// already-validated domain.Workflow.
//
// Documents are YAML. Task lists are sequences of single-key mappings so
// declaration order survives parsing; mappings that configure a task are
// decoded into their typed definitions with mapstructure.
package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/tideloom/tideloom/pkg/domain"
)

// Parser converts raw workflow documents into validated workflows.
type Parser struct{}

// NewParser creates a parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes, assembles and validates a workflow document.
func (p *Parser) Parse(data []byte) (*domain.Workflow, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &domain.ValidationError{Message: "malformed yaml: " + err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &domain.ValidationError{Message: "empty workflow document"}
	}

	doc := root.Content[0]
	wf := &domain.Workflow{}
	for _, pair := range mappingPairs(doc) {
		key, value := pair.key, pair.value
		switch key {
		case "document":
			if err := value.Decode(&wf.Document); err != nil {
				return nil, &domain.ValidationError{Message: "document: " + err.Error()}
			}
		case "do":
			list, err := p.parseTaskList(value, "do")
			if err != nil {
				return nil, err
			}
			wf.Do = list
		}
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}

// parseTaskList reads a sequence of single-key mappings, one named task
// each. The slice keeps declaration order.
func (p *Parser) parseTaskList(node *yaml.Node, where string) (domain.TaskList, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &domain.ValidationError{Message: where + " must be a sequence of named tasks"}
	}
	list := make(domain.TaskList, 0, len(node.Content))
	for _, entry := range node.Content {
		if entry.Kind != yaml.MappingNode || len(entry.Content) != 2 {
			return nil, &domain.ValidationError{Message: where + " entries must be single-key mappings"}
		}
		name := entry.Content[0].Value
		task, err := p.parseTask(entry.Content[1], where+"/"+name)
		if err != nil {
			return nil, err
		}
		list = append(list, domain.NamedTask{Name: name, Task: task})
	}
	return list, nil
}

// parseTask dispatches on the kind-bearing key of a task body.
func (p *Parser) parseTask(node *yaml.Node, where string) (*domain.Task, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &domain.ValidationError{Message: where + ": task body must be a mapping"}
	}

	body := make(map[string]*yaml.Node, len(node.Content)/2)
	var kind domain.Kind
	for _, pair := range mappingPairs(node) {
		key, value := pair.key, pair.value
		body[key] = value
		switch domain.Kind(key) {
		case domain.KindCall, domain.KindSet, domain.KindEmit, domain.KindListen,
			domain.KindRaise, domain.KindWait, domain.KindRun,
			domain.KindDo, domain.KindFork, domain.KindFor, domain.KindSwitch, domain.KindTry:
			if kind != "" {
				return nil, &domain.ValidationError{Message: fmt.Sprintf("%s: both %q and %q present", where, kind, key)}
			}
			kind = domain.Kind(key)
		}
	}
	if kind == "" {
		return nil, &domain.ValidationError{Message: where + ": no task kind recognized"}
	}

	switch kind {
	case domain.KindCall:
		return p.parseCall(body, where)
	case domain.KindSet:
		return p.parseSet(body[string(kind)], where)
	case domain.KindEmit:
		emit := &domain.EmitTask{}
		if err := decodeInto(body["emit"], emit); err != nil {
			return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
		}
		return &domain.Task{Kind: domain.KindEmit, Emit: emit}, nil
	case domain.KindListen:
		listen := &domain.ListenTask{}
		if err := decodeInto(body["listen"], listen); err != nil {
			return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
		}
		return &domain.Task{Kind: domain.KindListen, Listen: listen}, nil
	case domain.KindRaise:
		raise := &domain.RaiseTask{}
		if err := decodeInto(body["raise"], raise); err != nil {
			return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
		}
		return &domain.Task{Kind: domain.KindRaise, Raise: raise}, nil
	case domain.KindWait:
		return p.parseWait(body["wait"], where)
	case domain.KindRun:
		run := &domain.RunTask{}
		if err := decodeInto(body["run"], run); err != nil {
			return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
		}
		return &domain.Task{Kind: domain.KindRun, Run: run}, nil
	case domain.KindDo:
		list, err := p.parseTaskList(body["do"], where)
		if err != nil {
			return nil, err
		}
		return &domain.Task{Kind: domain.KindDo, Do: &domain.DoTask{Tasks: list}}, nil
	case domain.KindFork:
		return p.parseFork(body["fork"], where)
	case domain.KindFor:
		return p.parseFor(body, where)
	case domain.KindSwitch:
		return p.parseSwitch(body["switch"], where)
	case domain.KindTry:
		return p.parseTry(body, where)
	}
	return nil, &domain.ValidationError{Message: where + ": unreachable kind " + string(kind)}
}

// parseCall handles the `call: <type>` + `with: {...}` shape.
func (p *Parser) parseCall(body map[string]*yaml.Node, where string) (*domain.Task, error) {
	call := &domain.CallTask{Type: strings.ToLower(body["call"].Value)}
	if with, ok := body["with"]; ok {
		if err := decodeInto(with, call); err != nil {
			return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
		}
		call.Type = strings.ToLower(body["call"].Value)
	}
	return &domain.Task{Kind: domain.KindCall, Call: call}, nil
}

// parseSet keeps assignment order by walking the mapping node directly.
func (p *Parser) parseSet(node *yaml.Node, where string) (*domain.Task, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &domain.ValidationError{Message: where + ": set must be a mapping"}
	}
	set := &domain.SetTask{}
	for _, pair := range mappingPairs(node) {
		key, value := pair.key, pair.value
		var v any
		if err := value.Decode(&v); err != nil {
			return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
		}
		set.Assignments = append(set.Assignments, domain.Assignment{Key: key, Value: v})
	}
	return &domain.Task{Kind: domain.KindSet, Set: set}, nil
}

func (p *Parser) parseWait(node *yaml.Node, where string) (*domain.Task, error) {
	wait := &domain.WaitTask{}
	if node.Kind == yaml.ScalarNode {
		d, err := time.ParseDuration(node.Value)
		if err != nil {
			return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
		}
		wait.Duration = d
	} else if err := decodeInto(node, wait); err != nil {
		return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
	}
	return &domain.Task{Kind: domain.KindWait, Wait: wait}, nil
}

func (p *Parser) parseFork(node *yaml.Node, where string) (*domain.Task, error) {
	fork := &domain.ForkTask{}
	for _, pair := range mappingPairs(node) {
		key, value := pair.key, pair.value
		switch key {
		case "branches":
			list, err := p.parseTaskList(value, where+"/branches")
			if err != nil {
				return nil, err
			}
			fork.Branches = list
		case "compete":
			if err := value.Decode(&fork.Compete); err != nil {
				return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
			}
		}
	}
	return &domain.Task{Kind: domain.KindFork, Fork: fork}, nil
}

// parseFor reads the `for: {each, at, in}` header plus the sibling `while`
// and `do` keys.
func (p *Parser) parseFor(body map[string]*yaml.Node, where string) (*domain.Task, error) {
	loop := &domain.ForTask{}
	if err := decodeInto(body["for"], loop); err != nil {
		return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
	}
	if while, ok := body["while"]; ok {
		loop.While = while.Value
	}
	if doNode, ok := body["do"]; ok {
		list, err := p.parseTaskList(doNode, where+"/do")
		if err != nil {
			return nil, err
		}
		loop.Do = list
	}
	return &domain.Task{Kind: domain.KindFor, For: loop}, nil
}

// parseSwitch reads an ordered sequence of single-key case mappings:
// name -> {when, then}. A case without `when` is the default.
func (p *Parser) parseSwitch(node *yaml.Node, where string) (*domain.Task, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &domain.ValidationError{Message: where + ": switch must be a sequence of cases"}
	}
	sw := &domain.SwitchTask{}
	for _, entry := range node.Content {
		if entry.Kind != yaml.MappingNode || len(entry.Content) != 2 {
			return nil, &domain.ValidationError{Message: where + ": switch cases must be single-key mappings"}
		}
		name := entry.Content[0].Value
		c := domain.SwitchCase{Name: name}
		for _, pair := range mappingPairs(entry.Content[1]) {
			key, value := pair.key, pair.value
			switch key {
			case "when":
				c.When = value.Value
			case "then":
				task, err := p.parseTask(value, where+"/"+name)
				if err != nil {
					return nil, err
				}
				c.Then = task
			}
		}
		sw.Cases = append(sw.Cases, c)
	}
	return &domain.Task{Kind: domain.KindSwitch, Switch: sw}, nil
}

// parseTry reads the `try: [...]` block with its sibling `catch` clause.
func (p *Parser) parseTry(body map[string]*yaml.Node, where string) (*domain.Task, error) {
	try := &domain.TryTask{}
	list, err := p.parseTaskList(body["try"], where+"/try")
	if err != nil {
		return nil, err
	}
	try.Tasks = list

	if catch, ok := body["catch"]; ok {
		for _, pair := range mappingPairs(catch) {
			key, value := pair.key, pair.value
			switch key {
			case "errors":
				if err := value.Decode(&try.Catch.Errors); err != nil {
					return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
				}
			case "as":
				try.Catch.As = value.Value
			case "retry":
				retry := &domain.RetryPolicy{}
				if err := decodeInto(value, retry); err != nil {
					return nil, &domain.ValidationError{Message: where + ": " + err.Error()}
				}
				try.Catch.Retry = retry
			case "do":
				catchDo, err := p.parseTaskList(value, where+"/catch")
				if err != nil {
					return nil, err
				}
				try.Catch.Do = catchDo
			}
		}
	}
	return &domain.Task{Kind: domain.KindTry, Try: try}, nil
}

// mappingPair is one key/value entry of a mapping node.
type mappingPair struct {
	key   string
	value *yaml.Node
}

// mappingPairs returns a mapping node's key/value pairs in document order.
func mappingPairs(node *yaml.Node) []mappingPair {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]mappingPair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, mappingPair{key: node.Content[i].Value, value: node.Content[i+1]})
	}
	return pairs
}

// decodeInto decodes a yaml mapping into a typed definition, honoring the
// struct's yaml tags and parsing duration strings.
func decodeInto(node *yaml.Node, out any) error {
	if node == nil {
		return nil
	}
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		TagName:    "yaml",
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
