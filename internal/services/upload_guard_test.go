package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUploadGuard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := NewMemoryUploadGuard(ctx, time.Minute).(*memoryUploadGuard)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	ok, err := g.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = g.Acquire(ctx, "k")
	assert.False(t, ok, "held marker refuses a second request")

	require.NoError(t, g.Release(ctx, "k"))
	ok, _ = g.Acquire(ctx, "k")
	assert.True(t, ok, "released marker can be taken again")

	now = now.Add(2 * time.Minute)
	ok, _ = g.Acquire(ctx, "k")
	assert.True(t, ok, "expired marker can be taken again")

	_, _ = g.Acquire(ctx, "other")
	now = now.Add(2 * time.Minute)
	g.purge()
	g.mu.Lock()
	assert.Empty(t, g.entries)
	g.mu.Unlock()
}
