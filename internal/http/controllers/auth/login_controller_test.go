package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/goodow/moonauth/internal/auth"
)

func loginFixture() *LoginController {
	reg := auth.NewRegistry(auth.NewGoogle("gid", "gsec"), auth.NewQQ("qid", "qsec"))
	return NewLoginController(auth.NewExchanger(reg, "https://example.com/oauth2callback"), reg)
}

func TestShowLogin_ListsProviders(t *testing.T) {
	c := loginFixture()

	r := httptest.NewRequest(http.MethodGet, "/login?originalRequest=%2Fdocs%2F42", nil)
	w := httptest.NewRecorder()
	c.ShowLogin(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Providers       map[string]string `json:"providers"`
		OriginalRequest string            `json:"originalRequest"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "/docs/42", resp.OriginalRequest)
	require.Len(t, resp.Providers, 2)
	require.Contains(t, resp.Providers["google"], "accounts.google.com")
	require.Contains(t, resp.Providers["qq"], "graph.qq.com")
	require.False(t, strings.HasSuffix(resp.Providers["qq"], "&"))
}

func TestShowLogin_DefaultOriginalRequest(t *testing.T) {
	c := loginFixture()

	w := httptest.NewRecorder()
	c.ShowLogin(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	var resp struct {
		OriginalRequest string `json:"originalRequest"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "/", resp.OriginalRequest)
}

func beginRequest(target, provider string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("provider", provider)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestBegin_RedirectsToProvider(t *testing.T) {
	c := loginFixture()

	w := httptest.NewRecorder()
	c.Begin(w, beginRequest("/login/google", "google"))

	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "accounts.google.com")
}

func TestBegin_UnknownProvider(t *testing.T) {
	c := loginFixture()

	w := httptest.NewRecorder()
	c.Begin(w, beginRequest("/login/github", "github"))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
