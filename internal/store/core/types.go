package core

import "strings"

// UserID is the opaque, stable identifier for an account. It is unique per
// (provider, provider-subject): the first character is the provider initial
// and the remainder is the provider's subject id (e.g. "g1045..." for a
// Google account, "qB3F2..." for a QQ openid). Immutable once assigned.
type UserID string

func (u UserID) String() string { return string(u) }

// ProviderInitial returns the first character of the id, which encodes the
// provider that minted it. Empty ids return 0.
func (u UserID) ProviderInitial() byte {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

// ParticipantID is the human-facing identity string for an account,
// an email-like address such as "alice@example.com".
type ParticipantID string

func (p ParticipantID) Address() string { return string(p) }

// Domain returns the part after the last '@', or "" when there is none.
func (p ParticipantID) Domain() string {
	s := string(p)
	i := strings.LastIndexByte(s, '@')
	if i < 0 {
		return ""
	}
	return s[i+1:]
}

// OAuthCredentials holds provider tokens for an account. AccessToken is
// non-empty once set; RefreshToken may be empty (provider-dependent).
type OAuthCredentials struct {
	AccessToken  string
	RefreshToken string
}

// AccountRecord is one account as owned by the account store. One record
// per UserID; Credentials may be nil for records written before a login
// completed or after revocation.
type AccountRecord struct {
	UserID        UserID
	ParticipantID ParticipantID
	Credentials   *OAuthCredentials
}

// HasUsableCredentials reports whether the record carries a non-empty
// access token.
func (r *AccountRecord) HasUsableCredentials() bool {
	return r != nil && r.Credentials != nil && r.Credentials.AccessToken != ""
}
