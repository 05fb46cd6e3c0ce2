package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCache_GetMissDistinguishesFromFalsy(t *testing.T) {
	c := NewMemCache()
	ctx := context.Background()

	_, found, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "zero", []byte("0"), time.Minute))
	v, found, err := c.Get(ctx, "zero")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("0"), v)
}

func TestMemCache_Delete(t *testing.T) {
	c := NewMemCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	_, found, _ := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemCache_ClearPattern(t *testing.T) {
	c := NewMemCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "integration_credentials:social:b1:linkedin", []byte("x"), time.Minute))
	require.NoError(t, c.Set(ctx, "integration_credentials:social:b1:twitter", []byte("x"), time.Minute))
	require.NoError(t, c.Set(ctx, "integration_credentials:cms:b1:wordpress", []byte("x"), time.Minute))

	require.NoError(t, c.ClearPattern(ctx, "integration_credentials:social:b1:*"))

	_, found, _ := c.Get(ctx, "integration_credentials:social:b1:linkedin")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "integration_credentials:social:b1:twitter")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "integration_credentials:cms:b1:wordpress")
	assert.True(t, found)
}

func TestMemCache_IncrCreatesThenIncrements(t *testing.T) {
	c := NewMemCache()
	ctx := context.Background()

	n, err := c.Incr(ctx, "rate:key1:minute", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "rate:key1:minute", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemCache_IncrPreservesWindowTTL(t *testing.T) {
	c := NewMemCache()
	ctx := context.Background()

	_, err := c.Incr(ctx, "rate:key2:minute", 200*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	n, err := c.Incr(ctx, "rate:key2:minute", 200*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	time.Sleep(150 * time.Millisecond)
	_, found, _ := c.Get(ctx, "rate:key2:minute")
	assert.False(t, found, "bucket should have expired on its original window, not a window extended by Incr")
}
