package runtime

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	"github.com/tideloom/tideloom/pkg/domain"
)

const defaultErrorVar = "error"

// runTry is the engine's only recovery boundary. The try block runs as an
// implicit sequence; a failure is matched against the catch filter by error
// kind. Matching failures may first re-run the whole try block from its
// original input under the bounded retry policy; once retries are exhausted
// or absent, the catch block runs with the captured error exposed as a
// context variable. Non-matching failures, validation errors and evaluation
// errors propagate untouched.
func (e *Executor) runTry(ctx context.Context, try *domain.TryTask, rc *domain.RunContext, input any) (any, error) {
	out, err := e.runSequence(ctx, try.Tasks, rc, input)
	if err == nil {
		return out, nil
	}

	execErr, recoverable := asRecoverable(err)
	if !recoverable || !matchesFilter(try.Catch.Errors, execErr) {
		return nil, err
	}

	if policy := try.Catch.Retry; policy != nil {
		out, execErr, err = e.retry(ctx, try, rc, input, policy, execErr)
		if err == nil {
			return out, nil
		}
		if execErr == nil {
			// Retry surfaced a non-recoverable failure; hand it up as-is.
			return nil, err
		}
		if len(try.Catch.Do) == 0 {
			return nil, &domain.ExecutionError{
				Kind:    domain.ErrRetryExhausted,
				Message: "retry attempts exhausted",
				Cause:   execErr,
				Path:    execErr.Path,
			}
		}
	}

	if len(try.Catch.Do) == 0 {
		return nil, err
	}
	return e.runCatch(ctx, try, rc, input, execErr)
}

// retry re-executes the try block from its original input under the policy.
// MaxAttempts counts re-executions after the initial failure. Returns the
// successful output, or the last recoverable failure once exhausted.
func (e *Executor) retry(ctx context.Context, try *domain.TryTask, rc *domain.RunContext, input any, policy *domain.RetryPolicy, lastErr *domain.ExecutionError) (any, *domain.ExecutionError, error) {
	// MaxAttempts below 1 means no retries; the captured failure flows
	// straight to the catch path. Execute is reachable without workflow
	// validation, so the uint64 conversion below must never see it.
	if policy.MaxAttempts < 1 {
		return nil, lastErr, lastErr
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = 0
	if policy.Delay > 0 {
		strategy.InitialInterval = policy.Delay
	}
	if policy.Multiplier > 0 {
		strategy.Multiplier = policy.Multiplier
	}

	var out any
	operation := func() error {
		result, err := e.runSequence(ctx, try.Tasks, rc, input)
		if err == nil {
			out = result
			lastErr = nil
			return nil
		}
		execErr, recoverable := asRecoverable(err)
		if !recoverable || !matchesFilter(try.Catch.Errors, execErr) {
			lastErr = nil
			return backoff.Permanent(err)
		}
		lastErr = execErr
		return err
	}

	// backoff.Retry's first call is already the first re-execution, so the
	// retry budget handed to WithMaxRetries is one less than MaxAttempts.
	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(strategy, uint64(policy.MaxAttempts-1)), ctx))
	if err == nil {
		return out, nil, nil
	}
	return nil, lastErr, err
}

// runCatch executes the catch block with the captured failure bound to a
// scoped context variable (default "error"). Catch failures propagate with
// both the original and the catch breadcrumbs attached.
func (e *Executor) runCatch(ctx context.Context, try *domain.TryTask, rc *domain.RunContext, input any, captured *domain.ExecutionError) (any, error) {
	errVar := try.Catch.As
	if errVar == "" {
		errVar = defaultErrorVar
	}

	scope := rc.Branch()
	scope.SetVar(errVar, errorValue(captured))

	out, err := e.runSequence(ctx, try.Catch.Do, scope, input)
	if err != nil {
		catchErr := domain.Failed("catch", err)
		catchErr.Path = append(catchErr.Path, captured.Path...)
		if catchErr.Cause == nil {
			catchErr.Cause = captured
		}
		return nil, catchErr
	}

	for k, v := range scope.Writes() {
		if k == errVar {
			continue
		}
		rc.SetVar(k, v)
	}
	return out, nil
}

// errorValue shapes a captured failure for expression access.
func errorValue(execErr *domain.ExecutionError) map[string]any {
	path := make([]any, len(execErr.Path))
	for i, p := range execErr.Path {
		path[i] = p
	}
	return map[string]any{
		"kind":    string(execErr.Kind),
		"message": execErr.Message,
		"path":    path,
		"detail":  execErr.Error(),
	}
}

// asRecoverable extracts the execution failure a Try may act on. Validation
// and evaluation errors are never recoverable.
func asRecoverable(err error) (*domain.ExecutionError, bool) {
	var valErr *domain.ValidationError
	var evalErr *domain.EvaluationError
	if errors.As(err, &valErr) || errors.As(err, &evalErr) {
		return nil, false
	}
	var execErr *domain.ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return &domain.ExecutionError{Kind: domain.ErrTaskFailed, Cause: err}, true
}

func matchesFilter(filter []string, execErr *domain.ExecutionError) bool {
	if len(filter) == 0 {
		return true
	}
	for _, kind := range filter {
		if domain.ErrorKind(kind) == execErr.Kind {
			return true
		}
	}
	return false
}
