package domain

import "fmt"

// Validate checks that the task tree is structurally sound: every node has
// exactly the variant its kind announces, and every composite's children
// validate recursively. The path argument locates failures; pass the task's
// own name.
func (t *Task) Validate(path ...string) error {
	if t == nil {
		return &ValidationError{Path: path, Message: "nil task"}
	}

	variant := func(set bool) error {
		if !set {
			return &ValidationError{Path: path, Message: fmt.Sprintf("kind %q has no matching definition", t.Kind)}
		}
		return nil
	}

	switch t.Kind {
	case KindCall:
		if err := variant(t.Call != nil); err != nil {
			return err
		}
		if t.Call.Type == "" {
			return &ValidationError{Path: path, Message: "call task missing type"}
		}
	case KindSet:
		return variant(t.Set != nil)
	case KindEmit:
		if err := variant(t.Emit != nil); err != nil {
			return err
		}
		if t.Emit.Type == "" {
			return &ValidationError{Path: path, Message: "emit task missing event type"}
		}
	case KindListen:
		if err := variant(t.Listen != nil); err != nil {
			return err
		}
		if t.Listen.To == "" {
			return &ValidationError{Path: path, Message: "listen task missing event type"}
		}
	case KindRaise:
		if err := variant(t.Raise != nil); err != nil {
			return err
		}
		if t.Raise.Error == "" {
			return &ValidationError{Path: path, Message: "raise task missing error kind"}
		}
	case KindWait:
		if err := variant(t.Wait != nil); err != nil {
			return err
		}
		if t.Wait.Duration <= 0 {
			return &ValidationError{Path: path, Message: "wait task requires a positive duration"}
		}
	case KindRun:
		if err := variant(t.Run != nil); err != nil {
			return err
		}
		if t.Run.Command == "" {
			return &ValidationError{Path: path, Message: "run task missing command"}
		}
	case KindDo:
		if err := variant(t.Do != nil); err != nil {
			return err
		}
		return t.Do.Tasks.validate(path)
	case KindFork:
		if err := variant(t.Fork != nil); err != nil {
			return err
		}
		if len(t.Fork.Branches) == 0 {
			return &ValidationError{Path: path, Message: "fork task requires at least one branch"}
		}
		return t.Fork.Branches.validate(path)
	case KindFor:
		if err := variant(t.For != nil); err != nil {
			return err
		}
		if t.For.In == "" {
			return &ValidationError{Path: path, Message: "for task missing collection expression"}
		}
		return t.For.Do.validate(path)
	case KindSwitch:
		if err := variant(t.Switch != nil); err != nil {
			return err
		}
		for _, c := range t.Switch.Cases {
			if c.Then == nil {
				return &ValidationError{Path: append(path, c.Name), Message: "switch case missing subtask"}
			}
			if err := c.Then.Validate(append(path, c.Name)...); err != nil {
				return err
			}
		}
	case KindTry:
		if err := variant(t.Try != nil); err != nil {
			return err
		}
		if err := t.Try.Tasks.validate(path); err != nil {
			return err
		}
		if r := t.Try.Catch.Retry; r != nil && r.MaxAttempts < 1 {
			return &ValidationError{Path: path, Message: "retry policy requires maxAttempts >= 1"}
		}
		return t.Try.Catch.Do.validate(path)
	default:
		return &ValidationError{Path: path, Message: fmt.Sprintf("unknown task kind %q", t.Kind)}
	}
	return nil
}

func (l TaskList) validate(path []string) error {
	for _, item := range l {
		if err := item.Task.Validate(append(path, item.Name)...); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks workflow metadata and the whole task tree.
func (w *Workflow) Validate() error {
	if w.Document.Name == "" {
		return &ValidationError{Message: "document.name is required"}
	}
	if w.Document.DSL == "" {
		return &ValidationError{Message: "document.dsl is required"}
	}
	return w.Root().Validate(w.Document.Name)
}
