package auth

import (
	"context"

	"github.com/goodow/moonauth/internal/store/core"
)

// UserContext carries the identity resolved for one request. It is created
// per request, mutated only during that request's processing, and discarded
// at request end — it holds a copy of the relevant account fields and is
// never the source of truth across requests.
type UserContext struct {
	UserID        core.UserID
	ParticipantID core.ParticipantID
	Credentials   *core.OAuthCredentials

	// Provider is set explicitly during the callback flow; for later
	// requests it is inferred from the user id's provider initial.
	Provider Provider
}

func (u *UserContext) IsLoggedIn() bool {
	return u != nil && u.UserID != ""
}

// ResolveProvider returns the explicit provider when set, otherwise infers
// it from the user id.
func (u *UserContext) ResolveProvider(reg *Registry) (Provider, bool) {
	if u == nil {
		return nil, false
	}
	if u.Provider != nil {
		return u.Provider, true
	}
	return reg.ByUserID(u.UserID)
}

// Record snapshots the context as an account record for persisting.
func (u *UserContext) Record() *core.AccountRecord {
	return &core.AccountRecord{
		UserID:        u.UserID,
		ParticipantID: u.ParticipantID,
		Credentials:   u.Credentials,
	}
}

type userCtxKey struct{}

// WithUserContext injects a resolved UserContext into ctx so repeated
// auth checks within one request never re-hit the account store.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userCtxKey{}, uc)
}

// UserContextFrom returns the request's UserContext, or nil when the
// request is anonymous or no auth middleware ran.
func UserContextFrom(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userCtxKey{}).(*UserContext)
	return uc
}
