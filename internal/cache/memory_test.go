package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_AddFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	ok, err := c.Add(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Add(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "first", v)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	a := NewMemory("a")
	b := NewMemory("b")

	require.NoError(t, a.Set(ctx, "k", "v", time.Minute))
	_, err := b.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}
