package middlewares

import (
	"net/http"

	"github.com/goodow/moonauth/internal/auth"
	"github.com/goodow/moonauth/internal/http/errors"
	"github.com/goodow/moonauth/internal/observability/logger"
)

// XSSIPrefix guards every RPC response body. For the need-token sentinel it
// doubles as a guarantee the body never parses as JSON: the RPC client
// treats any parse failure as "get a new token and retry".
const (
	XSSIPrefix       = ")]}'"
	needTokenMessage = "need new OAuth token"
)

// WithUserContext resolves the request's credentials and, when they check
// out, stashes the UserContext in the request context. Anonymous requests
// pass through untouched; only a failing account store is an error.
func WithUserContext(lookup *auth.Lookup) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, r2, err := lookup.Authenticate(r)
			if err != nil {
				logger.From(r.Context()).Error("account lookup failed", logger.Err(err))
				errors.WriteError(w, errors.ErrServiceUnavailable.WithCause(err))
				return
			}
			next.ServeHTTP(w, r2)
		})
	}
}

// RequireRPCLogin gates RPC endpoints. An unauthenticated request gets an
// HTTP 200 whose body is the need-token sentinel rather than an HTTP error,
// so client libraries can tell "re-login and retry" apart from a real
// failure.
func RequireRPCLogin(lookup *auth.Lookup) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc, r2, err := lookup.Authenticate(r)
			if err != nil {
				logger.From(r.Context()).Error("account lookup failed", logger.Err(err))
				errors.WriteError(w, errors.ErrServiceUnavailable.WithCause(err))
				return
			}
			if !uc.IsLoggedIn() {
				writeNeedNewToken(w)
				return
			}
			next.ServeHTTP(w, r2)
		})
	}
}

func writeNeedNewToken(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(XSSIPrefix + needTokenMessage))
}
