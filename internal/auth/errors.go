package auth

import "errors"

// Error taxonomy for the OAuth flow. Callers branch on these to decide
// whether a retry makes sense; see Exchange and Refresh for the rules.
var (
	// ErrUnknownProvider: the name is not in the registry.
	ErrUnknownProvider = errors.New("auth: unknown provider")

	// ErrBadState: the state parameter did not split into exactly two
	// whitespace-separated fields. Fatal, never retried.
	ErrBadState = errors.New("auth: malformed state")

	// ErrUpstreamInvalid: the provider rejected the request (4xx) or the
	// response lacked a required field. Fatal; authorization codes are
	// single-use, so retrying with the same code cannot succeed.
	ErrUpstreamInvalid = errors.New("auth: provider rejected request")

	// ErrUpstreamTransient: 5xx or connection failure. The initial code
	// exchange may be re-driven by the browser; refresh must not be
	// retried blindly since the failure may mean revocation.
	ErrUpstreamTransient = errors.New("auth: provider temporarily unavailable")

	// ErrProtocolFormat: the provider answered 2xx with a body we cannot
	// parse. Fatal; kept distinct from ErrUpstreamInvalid for diagnostics.
	ErrProtocolFormat = errors.New("auth: unparseable provider response")

	// ErrUpstream: a provider API call (user info) answered non-2xx.
	ErrUpstream = errors.New("auth: provider api error")

	// ErrNeedNewToken: credentials can no longer be refreshed; the user
	// must log in again.
	ErrNeedNewToken = errors.New("auth: need new oauth token")

	// ErrCodeNotFound: the one-time login code is absent, expired, or was
	// already consumed.
	ErrCodeNotFound = errors.New("auth: login code not found")
)
