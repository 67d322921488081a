package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/security/xsrf"
	"github.com/goodow/moonauth/internal/store/core"
)

// Credential presentation keys. The same short names are used for the
// cookie, the custom header and the query parameter so clients can pick
// whichever channel suits them.
const (
	UserIDKey      = "u"
	TokenCookieKey = "t"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	oauthPrefix         = "OAuth "
	tokenQueryKey       = "access_token"
)

// A valueSource extracts one credential value from a request, returning ""
// when its channel carries nothing. Sources are tried in order and the two
// fields resolve independently: a userId from a header combines fine with a
// secret from a cookie.
type valueSource func(r *http.Request) string

func cookieSource(name string) valueSource {
	return func(r *http.Request) string {
		if c, err := r.Cookie(name); err == nil {
			return c.Value
		}
		return ""
	}
}

func headerSource(name string) valueSource {
	return func(r *http.Request) string { return r.Header.Get(name) }
}

func querySource(name string) valueSource {
	return func(r *http.Request) string { return r.URL.Query().Get(name) }
}

func authorizationSource(prefix string) valueSource {
	return func(r *http.Request) string {
		raw := r.Header.Get(authorizationHeader)
		if strings.HasPrefix(raw, prefix) {
			return raw[len(prefix):]
		}
		return ""
	}
}

var (
	userIDSources = []valueSource{
		cookieSource(UserIDKey),
		headerSource(UserIDKey),
		querySource(UserIDKey),
	}
	secretSources = []valueSource{
		cookieSource(TokenCookieKey),
		headerSource(TokenCookieKey),
		authorizationSource(bearerPrefix),
		authorizationSource(oauthPrefix),
		querySource(tokenQueryKey),
	}
)

func firstValue(r *http.Request, sources []valueSource) string {
	for _, src := range sources {
		if v := src(r); v != "" {
			return v
		}
	}
	return ""
}

// Lookup resolves an inbound request's presented credentials into an
// account record.
type Lookup struct {
	store core.AccountStore
	codec *xsrf.Codec
}

func NewLookup(store core.AccountStore, codec *xsrf.Codec) *Lookup {
	return &Lookup{store: store, codec: codec}
}

// Resolve returns the request's UserContext, or nil when the request is
// anonymous. Anonymous is not an error: callers must branch on nil. A
// non-nil error means the account store failed and nothing can be said
// about the request's identity.
//
// A context previously resolved by middleware is returned as-is, so
// repeated checks within one request cost nothing.
func (l *Lookup) Resolve(r *http.Request) (*UserContext, error) {
	if uc := UserContextFrom(r.Context()); uc != nil {
		return uc, nil
	}

	userID := firstValue(r, userIDSources)
	secret := firstValue(r, secretSources)
	if userID == "" || secret == "" {
		return nil, nil
	}

	log := logger.From(r.Context()).With(logger.Component("auth.lookup"), logger.UserID(userID))

	rec, err := l.store.GetAccount(r.Context(), core.UserID(userID))
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: account lookup: %w", err)
	}
	if !rec.HasUsableCredentials() {
		return nil, nil
	}

	// Expired and invalid both resolve to "not logged in" here; the
	// distinction is kept for diagnostics only.
	switch err := l.codec.Verify(rec.Credentials.AccessToken, secret); {
	case errors.Is(err, xsrf.ErrTokenExpired):
		log.Debug("session token expired")
		return nil, nil
	case err != nil:
		log.Debug("session token invalid", logger.Err(err))
		return nil, nil
	}

	return &UserContext{
		UserID:        rec.UserID,
		ParticipantID: rec.ParticipantID,
		Credentials:   rec.Credentials,
	}, nil
}

// Authenticate resolves the request and, when it is logged in, returns a
// request whose context carries the UserContext for downstream handlers.
func (l *Lookup) Authenticate(r *http.Request) (*UserContext, *http.Request, error) {
	uc, err := l.Resolve(r)
	if err != nil || uc == nil {
		return nil, r, err
	}
	if UserContextFrom(r.Context()) == uc {
		return uc, r, nil
	}
	return uc, r.WithContext(WithUserContext(r.Context(), uc)), nil
}

// AdminPolicy decides whether an account is an administrator: a fixed
// organizational domain is always admin, anything else consults the
// explicit allow-list.
type AdminPolicy struct {
	AdminDomain string
	Admins      []string
}

func (p AdminPolicy) IsAdmin(participant core.ParticipantID) bool {
	if p.AdminDomain != "" && participant.Domain() == p.AdminDomain {
		return true
	}
	for _, a := range p.Admins {
		if a == participant.Address() {
			return true
		}
	}
	return false
}
