package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/dsl"
)

func TestSequenceThreadsOutputs(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Do(
		dsl.Step("double", dsl.Set(dsl.Assign("value", "${ input.value * 2 }"))),
		dsl.Step("add-one", dsl.Set(dsl.Assign("value", "${ input.value + 1 }"))),
	)

	out, err := e.Execute(context.Background(), task, testRunContext(), map[string]any{"value": 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": 11}, out)
}

func TestEmptySequenceIsIdentity(t *testing.T) {
	e := newTestExecutor()

	input := map[string]any{"untouched": true}
	out, err := e.Execute(context.Background(), dsl.Do(), testRunContext(), input)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestSequenceFailsFast(t *testing.T) {
	e := newTestExecutor()
	rc := testRunContext()

	task := dsl.Do(
		dsl.Step("boom", dsl.Raise("storageDown", "disk on fire")),
		dsl.Step("after", dsl.Set(dsl.Assign("after", true))),
	)

	_, err := e.Execute(context.Background(), task, rc, nil)

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, []string{"boom"}, execErr.Path)
	assert.Equal(t, "disk on fire", execErr.Message)

	_, ran := rc.Var("after")
	assert.False(t, ran, "sibling after the failure must not run")
}

func TestSequenceGroupingDoesNotChangeResult(t *testing.T) {
	e := newTestExecutor()

	a := dsl.Step("a", dsl.Set(dsl.Assign("s", `${ input.s + "a" }`)))
	b := dsl.Step("b", dsl.Set(dsl.Assign("s", `${ input.s + "b" }`)))
	c := dsl.Step("c", dsl.Set(dsl.Assign("s", `${ input.s + "c" }`)))

	input := map[string]any{"s": ""}

	left, err := e.Execute(context.Background(),
		dsl.Do(dsl.Step("ab", dsl.Do(a, b)), c), testRunContext(), input)
	require.NoError(t, err)

	right, err := e.Execute(context.Background(),
		dsl.Do(a, dsl.Step("bc", dsl.Do(b, c))), testRunContext(), input)
	require.NoError(t, err)

	assert.Equal(t, left, right)
	assert.Equal(t, "abc", left.(map[string]any)["s"])
}

func TestDeeplyNestedSequences(t *testing.T) {
	e := newTestExecutor()

	task := dsl.Set(dsl.Assign("done", true))
	for i := 0; i < 1000; i++ {
		task = dsl.Do(dsl.Step("level", task))
	}

	out, err := e.Execute(context.Background(), task, testRunContext(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"done": true}, out)
}
