package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideloom/tideloom/pkg/domain"
)

func TestIsExpression(t *testing.T) {
	assert.True(t, IsExpression("${ input.x }"))
	assert.True(t, IsExpression("  ${input.x}  "))
	assert.False(t, IsExpression("input.x"))
	assert.False(t, IsExpression("${ unclosed"))
}

func TestEvalAgainstEnv(t *testing.T) {
	ev := New()
	rc := domain.NewRunContext("wf")
	rc.SetVar("region", "eu")

	env := NewEnv(map[string]any{"n": 2}, rc)

	out, err := ev.Eval("${ input.n * 3 }", env)
	require.NoError(t, err)
	assert.Equal(t, 6, out)

	out, err = ev.Eval("${ context.region }", env)
	require.NoError(t, err)
	assert.Equal(t, "eu", out)
}

func TestEvalBareSource(t *testing.T) {
	ev := New()
	out, err := ev.Eval("1 + 1", Env{})
	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

func TestEvalCompileError(t *testing.T) {
	ev := New()
	_, err := ev.Eval("${ 1 + }", Env{})

	var evalErr *domain.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "${ 1 + }", evalErr.Expression)
}

func TestEvalUndefinedVariableIsNil(t *testing.T) {
	ev := New()
	out, err := ev.Eval("${ input.missing }", NewEnv(map[string]any{}, nil))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestBoolRejectsNonBoolean(t *testing.T) {
	ev := New()

	b, err := ev.Bool("${ input.n > 1 }", NewEnv(map[string]any{"n": 5}, nil))
	require.NoError(t, err)
	assert.True(t, b)

	_, err = ev.Bool("${ input.n }", NewEnv(map[string]any{"n": 5}, nil))
	var evalErr *domain.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestResolveWalksStructures(t *testing.T) {
	ev := New()
	env := NewEnv(map[string]any{"name": "ada"}, nil)

	in := map[string]any{
		"greeting": "${ \"hi \" + input.name }",
		"plain":    "untouched",
		"nested":   []any{"${ input.name }", 42},
	}

	out, err := ev.Resolve(in, env)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"greeting": "hi ada",
		"plain":    "untouched",
		"nested":   []any{"ada", 42},
	}, out)

	// The original value is not mutated.
	assert.Equal(t, "${ input.name }", in["nested"].([]any)[0])
}

func TestWithItem(t *testing.T) {
	ev := New()
	env := NewEnv(nil, nil).WithItem("x", 3)

	out, err := ev.Eval("${ item }", env)
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	out, err = ev.Eval("${ index }", env)
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestProgramCacheReuse(t *testing.T) {
	ev := New()

	for i := 0; i < 3; i++ {
		out, err := ev.Eval("${ input + 1 }", Env{Input: i})
		require.NoError(t, err)
		assert.Equal(t, i+1, out)
	}
}
