package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goodow/moonauth/internal/security/xsrf"
	"github.com/goodow/moonauth/internal/store/core"
	"github.com/goodow/moonauth/internal/store/memory"
)

const lookupSecret = "0123456789abcdef0123456789abcdef"

func seedAccount(t *testing.T, store *memory.Store, codec *xsrf.Codec) (core.UserID, string) {
	t.Helper()
	rec := &core.AccountRecord{
		UserID:        "g123",
		ParticipantID: "alice@goodow.com",
		Credentials:   &core.OAuthCredentials{AccessToken: "at-1", RefreshToken: "rt-1"},
	}
	require.NoError(t, store.PutAccount(context.Background(), rec))

	tok, err := codec.Issue(rec.Credentials.AccessToken)
	require.NoError(t, err)
	return rec.UserID, tok
}

func TestLookup_CredentialChannels(t *testing.T) {
	store := memory.New()
	codec := xsrf.New(lookupSecret, time.Hour)
	userID, tok := seedAccount(t, store, codec)
	l := NewLookup(store, codec)

	tests := []struct {
		name    string
		decorate func(r *http.Request)
	}{
		{"cookie+cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "u", Value: string(userID)})
			r.AddCookie(&http.Cookie{Name: "t", Value: tok})
		}},
		{"header+header", func(r *http.Request) {
			r.Header.Set("u", string(userID))
			r.Header.Set("t", tok)
		}},
		{"cookie user, bearer token", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "u", Value: string(userID)})
			r.Header.Set("Authorization", "Bearer "+tok)
		}},
		{"header user, oauth token", func(r *http.Request) {
			r.Header.Set("u", string(userID))
			r.Header.Set("Authorization", "OAuth "+tok)
		}},
		{"query+query", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("u", string(userID))
			q.Set("access_token", tok)
			r.URL.RawQuery = q.Encode()
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
			tc.decorate(r)

			uc, err := l.Resolve(r)
			require.NoError(t, err)
			require.NotNil(t, uc)
			require.Equal(t, userID, uc.UserID)
			require.Equal(t, core.ParticipantID("alice@goodow.com"), uc.ParticipantID)
		})
	}
}

func TestLookup_Anonymous(t *testing.T) {
	store := memory.New()
	codec := xsrf.New(lookupSecret, time.Hour)
	_, tok := seedAccount(t, store, codec)
	l := NewLookup(store, codec)

	// No credentials at all.
	r := httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
	uc, err := l.Resolve(r)
	require.NoError(t, err)
	require.Nil(t, uc)

	// Only one half presented: still anonymous.
	r = httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
	r.AddCookie(&http.Cookie{Name: "u", Value: "g123"})
	uc, err = l.Resolve(r)
	require.NoError(t, err)
	require.Nil(t, uc)

	r = httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	uc, err = l.Resolve(r)
	require.NoError(t, err)
	require.Nil(t, uc)
}

func TestLookup_UnknownUser(t *testing.T) {
	store := memory.New()
	codec := xsrf.New(lookupSecret, time.Hour)
	l := NewLookup(store, codec)

	r := httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
	r.AddCookie(&http.Cookie{Name: "u", Value: "g999"})
	r.AddCookie(&http.Cookie{Name: "t", Value: "whatever"})

	uc, err := l.Resolve(r)
	require.NoError(t, err)
	require.Nil(t, uc)
}

func TestLookup_BadToken(t *testing.T) {
	store := memory.New()
	codec := xsrf.New(lookupSecret, time.Hour)
	userID, _ := seedAccount(t, store, codec)
	l := NewLookup(store, codec)

	r := httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
	r.AddCookie(&http.Cookie{Name: "u", Value: string(userID)})
	r.AddCookie(&http.Cookie{Name: "t", Value: "not-a-token"})

	uc, err := l.Resolve(r)
	require.NoError(t, err)
	require.Nil(t, uc)
}

func TestLookup_ExpiredToken(t *testing.T) {
	store := memory.New()
	// Issue through a codec whose window is already closed.
	expiredCodec := xsrf.New(lookupSecret, -time.Second)
	userID, tok := seedAccount(t, store, expiredCodec)

	l := NewLookup(store, xsrf.New(lookupSecret, time.Hour))
	r := httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
	r.AddCookie(&http.Cookie{Name: "u", Value: string(userID)})
	r.AddCookie(&http.Cookie{Name: "t", Value: tok})

	uc, err := l.Resolve(r)
	require.NoError(t, err)
	require.Nil(t, uc)
}

func TestLookup_PrefersResolvedContext(t *testing.T) {
	store := memory.New()
	codec := xsrf.New(lookupSecret, time.Hour)
	l := NewLookup(store, codec)

	want := &UserContext{UserID: "g123"}
	r := httptest.NewRequest(http.MethodGet, "/rpc/me", nil)
	r = r.WithContext(WithUserContext(r.Context(), want))

	uc, err := l.Resolve(r)
	require.NoError(t, err)
	require.Same(t, want, uc)
}

func TestAdminPolicy(t *testing.T) {
	p := AdminPolicy{
		AdminDomain: "goodow.com",
		Admins:      []string{"ops@example.com"},
	}

	require.True(t, p.IsAdmin("alice@goodow.com"))
	require.True(t, p.IsAdmin("ops@example.com"))
	require.False(t, p.IsAdmin("mallory@example.com"))
	require.False(t, p.IsAdmin("no-at-sign"))

	require.False(t, AdminPolicy{}.IsAdmin("alice@goodow.com"))
}
