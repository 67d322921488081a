// Package router wires controllers and middleware into the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goodow/moonauth/internal/auth"
	adminctl "github.com/goodow/moonauth/internal/http/controllers/admin"
	authctl "github.com/goodow/moonauth/internal/http/controllers/auth"
	healthctl "github.com/goodow/moonauth/internal/http/controllers/health"
	mw "github.com/goodow/moonauth/internal/http/middlewares"
)

// Deps carries everything the routes need. All fields are required.
type Deps struct {
	Login    *authctl.LoginController
	Callback *authctl.CallbackController
	Logout   *authctl.LogoutController
	Me       *authctl.MeController
	Accounts *adminctl.AccountsController
	Health   *healthctl.HealthController

	Lookup      *auth.Lookup
	AdminPolicy auth.AdminPolicy

	// Metrics is the prometheus handler; served without auth.
	Metrics http.Handler
}

func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())

	// Browser-facing login flow.
	r.Get("/login", deps.Login.ShowLogin)
	r.Get("/login/{provider}", deps.Login.Begin)
	r.Get("/oauth2callback", deps.Callback.HandleCallback)
	r.Post("/oauth2callback", deps.Callback.HandleExchange)
	r.With(mw.WithUserContext(deps.Lookup)).Get("/logout", deps.Logout.Logout)

	// RPC endpoints answer "need new token" instead of HTTP errors.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRPCLogin(deps.Lookup))
		r.Get("/rpc/me", deps.Me.Me)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.RequireAdmin(deps.Lookup, deps.AdminPolicy))
		r.Get("/accounts/{userID}", deps.Accounts.Get)
		r.Delete("/accounts/{userID}", deps.Accounts.Delete)
	})

	r.Get("/healthz", deps.Health.Healthz)
	r.Handle("/metrics", deps.Metrics)

	return r
}
