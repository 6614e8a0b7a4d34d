package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Claim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := NewMemory(time.Minute)
	g.now = func() time.Time { return now }

	ok, err := g.Claim(ctx, "pi_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = g.Claim(ctx, "pi_1")
	assert.False(t, ok, "second claim within ttl")

	ok, _ = g.Claim(ctx, "pi_2")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = g.Claim(ctx, "pi_1")
	assert.True(t, ok, "claim after ttl")

	require.NoError(t, g.Release(ctx, "pi_2"))
	ok, _ = g.Claim(ctx, "pi_2")
	assert.True(t, ok, "claim after release")
}
