package middlewares

import (
	"net/http"

	"github.com/goodow/moonauth/internal/auth"
	"github.com/goodow/moonauth/internal/http/errors"
	"github.com/goodow/moonauth/internal/observability/logger"
)

// RequireAdmin gates admin pages on the participant address: the configured
// organizational domain is always admin, everyone else must be on the
// allow-list. Must run after (or be given the same Lookup as) WithUserContext.
func RequireAdmin(lookup *auth.Lookup, policy auth.AdminPolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc, r2, err := lookup.Authenticate(r)
			if err != nil {
				logger.From(r.Context()).Error("account lookup failed", logger.Err(err))
				errors.WriteError(w, errors.ErrServiceUnavailable.WithCause(err))
				return
			}
			if !uc.IsLoggedIn() {
				logger.From(r.Context()).Error("admin page requested by anonymous user",
					logger.Path(r.URL.Path))
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			if !policy.IsAdmin(uc.ParticipantID) {
				logger.From(r2.Context()).Error("admin page requested by non-admin user",
					logger.Participant(uc.ParticipantID.Address()),
					logger.Path(r.URL.Path))
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r2)
		})
	}
}
