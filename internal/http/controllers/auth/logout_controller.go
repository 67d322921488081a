package auth

import (
	"net/http"

	"github.com/goodow/moonauth/internal/auth"
	"github.com/goodow/moonauth/internal/observability/logger"
)

// LogoutController clears the session cookies. The account record and its
// provider credentials stay put; only the browser's session ends.
type LogoutController struct{}

func NewLogoutController() *LogoutController {
	return &LogoutController{}
}

func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: auth.UserIDKey, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: auth.TokenCookieKey, Value: "", Path: "/", MaxAge: -1})

	if uc := auth.UserContextFrom(r.Context()); uc.IsLoggedIn() {
		logger.From(r.Context()).Info("logged out", logger.UserID(uc.UserID.String()))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
