package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goodow/moonauth/internal/cache"
	"github.com/goodow/moonauth/internal/store/core"
)

func TestCodeStore_PutConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore(cache.NewMemory("test"), time.Minute)

	require.NoError(t, s.Put(ctx, "code-1", core.UserID("g123")))

	id, err := s.Consume(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, core.UserID("g123"), id)

	_, err = s.Consume(ctx, "code-1")
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCodeStore_DuplicatePutFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore(cache.NewMemory("test"), time.Minute)

	require.NoError(t, s.Put(ctx, "code-1", core.UserID("g123")))
	require.NoError(t, s.Put(ctx, "code-1", core.UserID("q456")))

	id, err := s.Consume(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, core.UserID("g123"), id)
}

func TestCodeStore_UnknownCode(t *testing.T) {
	s := NewCodeStore(cache.NewMemory("test"), time.Minute)

	_, err := s.Consume(context.Background(), "never-stored")
	require.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCodeStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore(cache.NewMemory("test"), 10*time.Millisecond)

	require.NoError(t, s.Put(ctx, "code-1", core.UserID("g123")))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Consume(ctx, "code-1")
	require.ErrorIs(t, err, ErrCodeNotFound)
}
