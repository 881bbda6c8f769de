package runtime

import (
	"context"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/expr"
)

// runSwitch evaluates cases in declared order and executes the first whose
// predicate holds, short-circuiting the rest. A case with an empty
// predicate matches unconditionally, which is how a default is written
// (place it last). With no match and no default the input passes through
// unchanged; that identity fallback is deliberate, matching Do's empty-list
// law.
func (e *Executor) runSwitch(ctx context.Context, sw *domain.SwitchTask, rc *domain.RunContext, input any) (any, error) {
	env := expr.NewEnv(input, rc)
	for _, c := range sw.Cases {
		matched := true
		if c.When != "" {
			var err error
			matched, err = e.eval.Bool(c.When, env)
			if err != nil {
				return nil, err
			}
		}
		if matched {
			return e.named(ctx, domain.NamedTask{Name: c.Name, Task: c.Then}, rc, input)
		}
	}
	return input, nil
}
