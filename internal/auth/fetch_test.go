package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goodow/moonauth/internal/store/core"
	"github.com/goodow/moonauth/internal/store/memory"
)

func fetcherFixture(t *testing.T, tokenHandler http.HandlerFunc) (*Fetcher, *memory.Store) {
	t.Helper()
	tokenSrv := httptest.NewServer(tokenHandler)
	t.Cleanup(tokenSrv.Close)

	g := NewGoogle("id-1", "secret-1")
	g.tokenURL = tokenSrv.URL
	reg := NewRegistry(g)
	store := memory.New()
	return NewFetcher(reg, NewExchanger(reg, "https://example.com/cb"), store), store
}

func TestFetcher_Do_AttachesBearer(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer api.Close()

	f, _ := fetcherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("token endpoint must not be hit on a 2xx")
	})

	uc := &UserContext{
		UserID:      "g123",
		Credentials: &core.OAuthCredentials{AccessToken: "at-1"},
	}
	req, err := http.NewRequest(http.MethodGet, api.URL, nil)
	require.NoError(t, err)

	resp, err := f.Do(context.Background(), uc, req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
}

func TestFetcher_Do_RefreshesOn401(t *testing.T) {
	var apiCalls int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		if r.Header.Get("Authorization") != "Bearer at-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("fresh"))
	}))
	defer api.Close()

	f, store := fetcherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"access_token":"at-new"}`))
	})

	uc := &UserContext{
		UserID:        "g123",
		ParticipantID: "alice@goodow.com",
		Credentials:   &core.OAuthCredentials{AccessToken: "at-stale", RefreshToken: "rt-1"},
	}
	req, err := http.NewRequest(http.MethodGet, api.URL, nil)
	require.NoError(t, err)

	resp, err := f.Do(context.Background(), uc, req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(body))
	require.Equal(t, 2, apiCalls)

	// The refreshed credentials are visible on the context and in the store.
	require.Equal(t, "at-new", uc.Credentials.AccessToken)
	require.Equal(t, "rt-1", uc.Credentials.RefreshToken)

	rec, err := store.GetAccount(context.Background(), "g123")
	require.NoError(t, err)
	require.Equal(t, "at-new", rec.Credentials.AccessToken)
}

func TestFetcher_Do_NoCredentials(t *testing.T) {
	f, _ := fetcherFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	require.NoError(t, err)

	_, err = f.Do(context.Background(), nil, req)
	require.ErrorIs(t, err, ErrNeedNewToken)

	_, err = f.Do(context.Background(), &UserContext{UserID: "g123"}, req)
	require.ErrorIs(t, err, ErrNeedNewToken)
}

func TestRefreshCredentials_NoRefreshToken(t *testing.T) {
	f, _ := fetcherFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	uc := &UserContext{
		UserID:      "g123",
		Credentials: &core.OAuthCredentials{AccessToken: "at-1"},
	}
	err := f.RefreshCredentials(context.Background(), uc)
	require.ErrorIs(t, err, ErrNeedNewToken)
}

func TestRefreshCredentials_RejectedMeansNewLogin(t *testing.T) {
	f, _ := fetcherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})

	uc := &UserContext{
		UserID:      "g123",
		Credentials: &core.OAuthCredentials{AccessToken: "at-1", RefreshToken: "rt-dead"},
	}
	err := f.RefreshCredentials(context.Background(), uc)
	require.ErrorIs(t, err, ErrNeedNewToken)
}

func TestRefreshCredentials_TransientPassesThrough(t *testing.T) {
	f, _ := fetcherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	uc := &UserContext{
		UserID:      "g123",
		Credentials: &core.OAuthCredentials{AccessToken: "at-1", RefreshToken: "rt-1"},
	}
	err := f.RefreshCredentials(context.Background(), uc)
	require.ErrorIs(t, err, ErrUpstreamTransient)
	require.NotErrorIs(t, err, ErrNeedNewToken)
}
