package runtime

import (
	"context"
	"sync"

	"github.com/mohae/deepcopy"

	"github.com/tideloom/tideloom/pkg/domain"
)

type branchResult struct {
	index  int
	output any
	err    error
}

// runFork is the engine's sole source of concurrency. Each branch runs on
// its own goroutine against a branch-local context overlay and an
// independent deep copy of the input, so branches never observe each
// other's writes before the join.
//
// all mode joins on every branch: the output maps branch name to branch
// output, overlays merge in declared order (later branches overwrite
// conflicting keys), and any failure aggregates every branch error.
//
// compete mode joins on the first success: the winner's output and writes
// are taken, the losers are cancelled cooperatively and their overlays are
// discarded unmerged.
func (e *Executor) runFork(ctx context.Context, fork *domain.ForkTask, rc *domain.RunContext, input any) (any, error) {
	branchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	overlays := make([]*domain.RunContext, len(fork.Branches))
	results := make(chan branchResult, len(fork.Branches))

	var wg sync.WaitGroup
	for i, branch := range fork.Branches {
		overlays[i] = rc.Branch()
		wg.Add(1)
		go func(i int, branch domain.NamedTask) {
			defer wg.Done()
			out, err := e.named(branchCtx, branch, overlays[i], deepcopy.Copy(input))
			results <- branchResult{index: i, output: out, err: err}
		}(i, branch)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	if fork.Compete {
		return e.joinCompete(cancel, results, fork, overlays)
	}
	return e.joinAll(results, fork, overlays)
}

func (e *Executor) joinAll(results <-chan branchResult, fork *domain.ForkTask, overlays []*domain.RunContext) (any, error) {
	outputs := make([]any, len(fork.Branches))
	failures := make([]error, len(fork.Branches))
	failed := false
	for res := range results {
		outputs[res.index] = res.output
		failures[res.index] = res.err
		failed = failed || res.err != nil
	}

	if failed {
		var branchErrs []error
		for _, err := range failures {
			if err != nil {
				branchErrs = append(branchErrs, err)
			}
		}
		return nil, domain.Aggregate("", branchErrs)
	}

	// Merge context writes in declared branch order so the conflict policy
	// is last-declared-branch-wins, independent of completion order.
	for _, overlay := range overlays {
		overlay.Merge()
	}

	combined := make(map[string]any, len(fork.Branches))
	for i, branch := range fork.Branches {
		combined[branch.Name] = outputs[i]
	}
	return combined, nil
}

func (e *Executor) joinCompete(cancel context.CancelFunc, results <-chan branchResult, fork *domain.ForkTask, overlays []*domain.RunContext) (any, error) {
	failures := make([]error, len(fork.Branches))
	seen := 0
	for res := range results {
		if res.err == nil {
			// First success wins. Cancel the rest; their overlays are
			// dropped unmerged so losing writes stay invisible.
			cancel()
			overlays[res.index].Merge()
			return res.output, nil
		}
		failures[res.index] = res.err
		seen++
		if seen == len(fork.Branches) {
			break
		}
	}
	return nil, domain.Aggregate("", nonNil(failures))
}

func nonNil(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
