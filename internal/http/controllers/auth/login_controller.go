package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goodow/moonauth/internal/auth"
	httperrors "github.com/goodow/moonauth/internal/http/errors"
	"github.com/goodow/moonauth/internal/observability/logger"
)

// LoginController hands out authorization URLs. Rendering the chooser page
// is the front end's job; this only builds the URLs.
type LoginController struct {
	exchanger *auth.Exchanger
	registry  *auth.Registry
}

func NewLoginController(ex *auth.Exchanger, reg *auth.Registry) *LoginController {
	return &LoginController{exchanger: ex, registry: reg}
}

type loginResponse struct {
	// Providers maps provider name to its authorization URL.
	Providers       map[string]string `json:"providers"`
	OriginalRequest string            `json:"originalRequest"`
}

// ShowLogin returns one authorization URL per configured provider. The
// originalRequest parameter is echoed back so the front end can resume
// where the user started once the popup reports success.
func (c *LoginController) ShowLogin(w http.ResponseWriter, r *http.Request) {
	originalRequest := r.URL.Query().Get("originalRequest")
	if originalRequest == "" {
		originalRequest = "/"
	}
	state := r.URL.Query().Get("state")

	resp := loginResponse{
		Providers:       make(map[string]string, len(c.registry.Names())),
		OriginalRequest: originalRequest,
	}
	for _, name := range c.registry.Names() {
		u, err := c.exchanger.BuildAuthorizationURL(name, state)
		if err != nil {
			logger.From(r.Context()).Error("authorization url build failed",
				logger.Provider(name), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
			return
		}
		resp.Providers[name] = u
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(resp)
}

// Begin sends the browser straight into one provider's consent page.
func (c *LoginController) Begin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	u, err := c.exchanger.BuildAuthorizationURL(name, r.URL.Query().Get("state"))
	if errors.Is(err, auth.ErrUnknownProvider) {
		httperrors.WriteError(w, httperrors.ErrUnknownProvider.WithDetail(name))
		return
	}
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}
