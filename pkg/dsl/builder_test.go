package dsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideloom/tideloom/pkg/domain"
)

func TestWorkflowBuildsValidDocuments(t *testing.T) {
	wf := Workflow("checkout",
		Step("reserve", Set(Assign("reserved", true))),
		Step("pay", CallHTTP("POST", "https://pay.example.com/charge")),
	)

	require.NoError(t, wf.Validate())
	assert.Equal(t, "checkout", wf.Document.Name)
	require.Len(t, wf.Do, 2)
	assert.Equal(t, "reserve", wf.Do[0].Name)
}

func TestForBuilder(t *testing.T) {
	task := For("${ input.items }").Each("it").At("pos").While("${ context.pos < 5 }").Do(
		Step("noop", Set(Assign("seen", true))),
	)

	require.Equal(t, domain.KindFor, task.Kind)
	assert.Equal(t, "it", task.For.Each)
	assert.Equal(t, "pos", task.For.At)
	assert.Equal(t, "${ context.pos < 5 }", task.For.While)
	require.NoError(t, task.Validate("loop"))
}

func TestSwitchBuilderOrdersCases(t *testing.T) {
	task := Switch().
		Case("a", "${ true }", Set(Assign("x", 1))).
		Case("b", "${ false }", Set(Assign("x", 2))).
		Default("fallback", Set(Assign("x", 3))).
		Build()

	require.Equal(t, domain.KindSwitch, task.Kind)
	require.Len(t, task.Switch.Cases, 3)
	assert.Equal(t, []string{"a", "b", "fallback"}, []string{
		task.Switch.Cases[0].Name, task.Switch.Cases[1].Name, task.Switch.Cases[2].Name,
	})
	assert.Empty(t, task.Switch.Cases[2].When)
}

func TestTryBuilder(t *testing.T) {
	task := Try(
		Step("risky", Raise("boom", "")),
	).CatchOnly("boom").As("oops").Retry(3, time.Second, 2.0).Catch(
		Step("rescue", Set(Assign("ok", true))),
	)

	require.Equal(t, domain.KindTry, task.Kind)
	assert.Equal(t, []string{"boom"}, task.Try.Catch.Errors)
	assert.Equal(t, "oops", task.Try.Catch.As)
	require.NotNil(t, task.Try.Catch.Retry)
	assert.Equal(t, 3, task.Try.Catch.Retry.MaxAttempts)
	require.Len(t, task.Try.Catch.Do, 1)
	require.NoError(t, task.Validate("guarded"))
}

func TestForkBuilders(t *testing.T) {
	all := Fork(Step("a", Wait(time.Second)), Step("b", Wait(time.Second)))
	assert.False(t, all.Fork.Compete)

	race := ForkCompete(Step("a", Wait(time.Second)), Step("b", Wait(time.Second)))
	assert.True(t, race.Fork.Compete)
}
