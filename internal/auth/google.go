package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/goodow/moonauth/internal/store/core"
)

const (
	googleAuthEndpoint     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenEndpoint    = "https://accounts.google.com/o/oauth2/token"
	googleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v1/userinfo"

	googleScope = "https://www.googleapis.com/auth/userinfo.profile " +
		"https://www.googleapis.com/auth/userinfo.email"
)

// Google is the standard-JSON provider: token responses are parsed by the
// default JSON path.
type Google struct {
	clientID     string
	clientSecret string

	// Endpoints are fields so tests can point them at a fake server.
	authURL     string
	tokenURL    string
	userInfoURL string

	http *http.Client
}

func NewGoogle(clientID, clientSecret string) *Google {
	return &Google{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      googleAuthEndpoint,
		tokenURL:     googleTokenEndpoint,
		userInfoURL:  googleUserInfoEndpoint,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Google) Name() string                 { return "google" }
func (g *Google) AuthorizationBaseURL() string { return g.authURL }
func (g *Google) TokenEndpoint() string        { return g.tokenURL }
func (g *Google) ClientID() string             { return g.clientID }
func (g *Google) ClientSecret() string         { return g.clientSecret }
func (g *Google) Scope() string                { return googleScope }

// AppendExtraAuthParams requests offline access and forces the consent
// screen so a refresh token is always issued.
func (g *Google) AppendExtraAuthParams(b *bytes.Buffer) {
	urlParam(b, "access_type", "offline")
	urlParam(b, "approval_prompt", "force")
}

// ParseNonStandardTokenResponse always defers to the standard JSON path.
func (g *Google) ParseNonStandardTokenResponse(string) (TokenPair, bool) {
	return TokenPair{}, false
}

// FetchUserInfo fetches the Google userinfo document and maps it to the
// canonical record: userId is the provider initial plus the Google subject.
func (g *Google) FetchUserInfo(ctx context.Context, creds core.OAuthCredentials) (*core.AccountRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: userinfo gave status %d", ErrUpstream, resp.StatusCode)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolFormat, err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("%w: userinfo missing id", ErrProtocolFormat)
	}

	return &core.AccountRecord{
		UserID:        core.UserID(g.Name()[:1] + info.ID),
		ParticipantID: core.ParticipantID(info.Email),
	}, nil
}
