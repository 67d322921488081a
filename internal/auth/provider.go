// Package auth implements the multi-provider OAuth login flow: provider
// registry, authorization-code and refresh-token exchanges, one-time login
// codes, and presented-credential resolution for inbound requests.
package auth

import (
	"bytes"
	"context"
	"sort"

	"github.com/goodow/moonauth/internal/store/core"
)

// TokenPair is a provider token response normalized to its two fields.
// RefreshToken may be empty.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Provider encapsulates one OAuth2 endpoint set and its response-format
// quirks. Implementations are immutable after construction and registered
// once at startup.
type Provider interface {
	Name() string
	AuthorizationBaseURL() string
	TokenEndpoint() string
	ClientID() string
	ClientSecret() string
	Scope() string

	// FetchUserInfo calls the provider's user-info API with creds and maps
	// the response to a canonical AccountRecord (credentials not attached).
	// Fails with ErrUpstream on non-2xx and ErrProtocolFormat on an
	// unparseable body.
	FetchUserInfo(ctx context.Context, creds core.OAuthCredentials) (*core.AccountRecord, error)

	// AppendExtraAuthParams decorates the authorization URL. On entry the
	// buffer always ends with a trailing '&'; providers that reject it may
	// truncate it away.
	AppendExtraAuthParams(b *bytes.Buffer)

	// ParseNonStandardTokenResponse returns ok=false to signal "use the
	// standard JSON parsing". Returning a pair short-circuits it. Exists
	// because QQ's token endpoint answers x-www-form-urlencoded, not JSON.
	ParseNonStandardTokenResponse(body string) (TokenPair, bool)
}

// Registry is the fixed name → Provider mapping. Read-only after startup.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	m := make(map[string]Provider, len(ps))
	for _, p := range ps {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, sorted for stable output.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByUserID resolves the provider that minted a user id from the id's
// leading provider initial.
func (r *Registry) ByUserID(id core.UserID) (Provider, bool) {
	initial := id.ProviderInitial()
	if initial == 0 {
		return nil, false
	}
	for name, p := range r.providers {
		if name[0] == initial {
			return p, true
		}
	}
	return nil, false
}
