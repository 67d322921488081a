package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goodow/moonauth/internal/store/core"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetAccount(ctx, "g123")
	require.ErrorIs(t, err, core.ErrNotFound)

	rec := &core.AccountRecord{
		UserID:        "g123",
		ParticipantID: "alice@goodow.com",
		Credentials:   &core.OAuthCredentials{AccessToken: "at-1", RefreshToken: "rt-1"},
	}
	require.NoError(t, s.PutAccount(ctx, rec))

	got, err := s.GetAccount(ctx, "g123")
	require.NoError(t, err)
	require.Equal(t, rec, got)

	require.NoError(t, s.DeleteAccount(ctx, "g123"))
	_, err = s.GetAccount(ctx, "g123")
	require.ErrorIs(t, err, core.ErrNotFound)

	// Deleting a missing account is not an error.
	require.NoError(t, s.DeleteAccount(ctx, "g123"))
}

func TestStore_RejectsEmptyID(t *testing.T) {
	s := New()
	require.ErrorIs(t, s.PutAccount(context.Background(), &core.AccountRecord{}), core.ErrInvalid)
	require.ErrorIs(t, s.PutAccount(context.Background(), nil), core.ErrInvalid)
}

func TestStore_CopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := New()

	rec := &core.AccountRecord{
		UserID:      "g123",
		Credentials: &core.OAuthCredentials{AccessToken: "at-1"},
	}
	require.NoError(t, s.PutAccount(ctx, rec))

	// Mutating the caller's record after the put must not leak in.
	rec.Credentials.AccessToken = "mutated"
	got, err := s.GetAccount(ctx, "g123")
	require.NoError(t, err)
	require.Equal(t, "at-1", got.Credentials.AccessToken)

	// Mutating a returned record must not leak back into the store.
	got.Credentials.AccessToken = "mutated-again"
	again, err := s.GetAccount(ctx, "g123")
	require.NoError(t, err)
	require.Equal(t, "at-1", again.Credentials.AccessToken)
}
