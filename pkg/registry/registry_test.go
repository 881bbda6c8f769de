package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tideloom/tideloom/pkg/domain"
	"github.com/tideloom/tideloom/pkg/ports"
)

func echoHandler() ports.TaskHandler {
	return ports.HandlerFunc(func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		return input, nil
	})
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register(domain.KindWait, echoHandler())

	h, ok := r.Lookup(domain.KindWait)
	require.True(t, ok)
	assert.NotNil(t, h)

	_, ok = r.Lookup(domain.KindCall)
	assert.False(t, ok)
}

func TestRegisterOverrides(t *testing.T) {
	r := New()
	r.Register(domain.KindWait, echoHandler())

	override := ports.HandlerFunc(func(ctx context.Context, task *domain.Task, rc *domain.RunContext, input any) (any, error) {
		return "overridden", nil
	})
	r.Register(domain.KindWait, override)

	h, ok := r.Lookup(domain.KindWait)
	require.True(t, ok)
	out, err := h.Run(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "overridden", out)
}

func TestKindsListsRegistrations(t *testing.T) {
	r := New()
	r.Register(domain.KindWait, echoHandler())
	r.Register(domain.KindSet, echoHandler())

	kinds := r.Kinds()
	assert.ElementsMatch(t, []domain.Kind{domain.KindWait, domain.KindSet}, kinds)
}
