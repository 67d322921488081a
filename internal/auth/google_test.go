package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goodow/moonauth/internal/store/core"
)

func TestGoogle_ExtraAuthParams(t *testing.T) {
	g := NewGoogle("id", "sec")

	var b bytes.Buffer
	b.WriteString("scope=email&")
	g.AppendExtraAuthParams(&b)
	require.Equal(t, "scope=email&access_type=offline&approval_prompt=force&", b.String())
}

func TestGoogle_FetchUserInfo(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"10458","email":"alice@example.com","name":"Alice"}`))
	}))
	defer srv.Close()

	g := NewGoogle("id", "sec")
	g.userInfoURL = srv.URL

	rec, err := g.FetchUserInfo(context.Background(), core.OAuthCredentials{AccessToken: "at-1"})
	require.NoError(t, err)
	require.Equal(t, core.UserID("g10458"), rec.UserID)
	require.Equal(t, core.ParticipantID("alice@example.com"), rec.ParticipantID)
	require.Equal(t, "Bearer at-1", gotAuth)
}

func TestGoogle_FetchUserInfo_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"email":"x@example.com"}`))
	}))
	defer srv.Close()

	g := NewGoogle("id", "sec")
	g.userInfoURL = srv.URL

	_, err := g.FetchUserInfo(context.Background(), core.OAuthCredentials{AccessToken: "at"})
	require.ErrorIs(t, err, ErrProtocolFormat)
}

func TestGoogle_FetchUserInfo_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGoogle("id", "sec")
	g.userInfoURL = srv.URL

	_, err := g.FetchUserInfo(context.Background(), core.OAuthCredentials{AccessToken: "at"})
	require.ErrorIs(t, err, ErrUpstream)
}
