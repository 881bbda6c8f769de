package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/dsl"
)

// flakyRunner fails a configurable number of times before succeeding,
// standing in for an unreliable external process.
type flakyRunner struct {
	mu           sync.Mutex
	calls        int
	succeedAfter int
}

func (r *flakyRunner) Run(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.succeedAfter > 0 && r.calls >= r.succeedAfter {
		return map[string]any{"attempt": r.calls}, nil
	}
	return nil, errors.New("transient failure")
}

func (r *flakyRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestTryPassesThroughOnSuccess(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Try(
		dsl.Step("work", dsl.Set(dsl.Assign("done", true))),
	).Catch(
		dsl.Step("never", dsl.Set(dsl.Assign("recovered", true))),
	)

	out, err := e.Execute(context.Background(), task, testRunContext(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"done": true}, out)
}

func TestTryCatchRecovers(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Try(
		dsl.Step("explode", dsl.Raise("paymentDeclined", "card expired")),
	).CatchOnly("paymentDeclined").As("failure").Catch(
		dsl.Step("fallback", dsl.Set(
			dsl.Assign("recovered", true),
			dsl.Assign("kind", "${ context.failure.kind }"),
			dsl.Assign("message", "${ context.failure.message }"),
		)),
	)

	out, err := e.Execute(context.Background(), task, testRunContext(), map[string]any{})
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, true, result["recovered"])
	assert.Equal(t, "paymentDeclined", result["kind"])
	assert.Equal(t, "card expired", result["message"])
}

func TestTryCatchDefaultErrorVariable(t *testing.T) {
	e := newTestExecutor()
	rc := testRunContext()

	task := dsl.Try(
		dsl.Step("explode", dsl.Raise("boom", "it broke")),
	).Catch(
		dsl.Step("inspect", dsl.Set(dsl.Assign("why", "${ context.error.message }"))),
	)

	out, err := e.Execute(context.Background(), task, rc, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "it broke", out.(map[string]any)["why"])

	// The captured error is scoped to the catch block, not the run.
	_, leaked := rc.Var("error")
	assert.False(t, leaked)

	// Other catch writes do persist.
	v, ok := rc.Var("why")
	require.True(t, ok)
	assert.Equal(t, "it broke", v)
}

func TestTryFilterMismatchPropagates(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Try(
		dsl.Step("explode", dsl.Raise("storageDown", "disk gone")),
	).CatchOnly("networkDown").Catch(
		dsl.Step("never", dsl.Set(dsl.Assign("recovered", true))),
	)

	_, err := e.Execute(context.Background(), task, testRunContext(), nil)

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, domain.ErrorKind("storageDown"), execErr.Kind)
	assert.Equal(t, []string{"explode"}, execErr.Path)
}

func TestTryRetrySucceedsEventually(t *testing.T) {
	e := newTestExecutor()
	runner := &flakyRunner{succeedAfter: 3}
	rc := testRunContext()
	rc.Processes = runner

	task := dsl.Try(
		dsl.Step("poke", dsl.Run("health-probe", nil)),
	).Retry(5, time.Millisecond, 1.0).Build()

	out, err := e.Execute(context.Background(), task, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"attempt": 3}, out)
	assert.Equal(t, 3, runner.callCount())
}

func TestTryRetryExhaustedWithoutCatch(t *testing.T) {
	e := newTestExecutor()
	runner := &flakyRunner{} // never succeeds
	rc := testRunContext()
	rc.Processes = runner

	task := dsl.Try(
		dsl.Step("poke", dsl.Run("health-probe", nil)),
	).Retry(2, time.Millisecond, 1.0).Build()

	_, err := e.Execute(context.Background(), task, rc, nil)

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, domain.ErrRetryExhausted, execErr.Kind)
	assert.Equal(t, 3, runner.callCount(), "initial run plus two re-executions")
}

func TestTryRetryZeroAttemptsRunsOnce(t *testing.T) {
	e := newTestExecutor()
	runner := &flakyRunner{} // never succeeds
	rc := testRunContext()
	rc.Processes = runner

	task := dsl.Try(
		dsl.Step("poke", dsl.Run("health-probe", nil)),
	).Retry(0, time.Millisecond, 1.0).Build()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := e.Execute(ctx, task, rc, nil)

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, domain.ErrRetryExhausted, execErr.Kind)
	assert.Equal(t, 1, runner.callCount(), "a zero attempt budget must not re-execute")
}

func TestTryRetryExhaustedFallsToCatch(t *testing.T) {
	e := newTestExecutor()
	runner := &flakyRunner{}
	rc := testRunContext()
	rc.Processes = runner

	task := dsl.Try(
		dsl.Step("poke", dsl.Run("health-probe", nil)),
	).Retry(2, time.Millisecond, 1.0).Catch(
		dsl.Step("fallback", dsl.Set(dsl.Assign("recovered", true))),
	)

	out, err := e.Execute(context.Background(), task, rc, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out.(map[string]any)["recovered"])
	assert.Equal(t, 3, runner.callCount())
}

func TestTryCatchFailureKeepsBothBreadcrumbs(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Try(
		dsl.Step("original", dsl.Raise("boom", "first failure")),
	).Catch(
		dsl.Step("doomed-recovery", dsl.Raise("boom2", "second failure")),
	)

	_, err := e.Execute(context.Background(), task, testRunContext(), nil)

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, []string{"catch", "doomed-recovery", "original"}, execErr.Path)
}

func TestTryDoesNotCatchEvaluationErrors(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Try(
		dsl.Step("bad-expr", dsl.Set(dsl.Assign("v", "${ 1 + }"))),
	).Catch(
		dsl.Step("never", dsl.Set(dsl.Assign("recovered", true))),
	)

	_, err := e.Execute(context.Background(), task, testRunContext(), nil)

	var evalErr *domain.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestTryEmptyFilterMatchesAnyKind(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Try(
		dsl.Step("explode", dsl.Raise("somethingObscure", "")),
	).Catch(
		dsl.Step("fallback", dsl.Set(dsl.Assign("recovered", true))),
	)

	out, err := e.Execute(context.Background(), task, testRunContext(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out.(map[string]any)["recovered"])
}
