package middlewares

import (
	"net/http"

	"github.com/goodow/moonauth/internal/http/errors"
	"github.com/goodow/moonauth/internal/observability/logger"
)

// WithRecover turns handler panics into a 500 instead of tearing down the
// connection.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("handler panic",
						logger.Path(r.URL.Path),
						logger.Any("panic", rec),
					)
					errors.WriteError(w, errors.ErrInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
