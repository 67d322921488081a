package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goodow/moonauth/internal/store/core"
)

const (
	qqAuthEndpoint   = "https://graph.qq.com/oauth2.0/authorize"
	qqTokenEndpoint  = "https://graph.qq.com/oauth2.0/token"
	qqOpenIDEndpoint = "https://graph.z.qq.com/moc2/me"
	qqInfoEndpoint   = "https://graph.qq.com/user/get_info"

	qqScope = "get_user_info,get_info"
)

// QQ is the non-standard provider: its token endpoint answers
// "access_token=A&expires_in=7776000" instead of JSON, and its authorize
// endpoint rejects URLs ending in '&'.
type QQ struct {
	clientID     string
	clientSecret string

	authURL   string
	tokenURL  string
	openIDURL string
	infoURL   string

	http *http.Client
}

func NewQQ(clientID, clientSecret string) *QQ {
	return &QQ{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      qqAuthEndpoint,
		tokenURL:     qqTokenEndpoint,
		openIDURL:    qqOpenIDEndpoint,
		infoURL:      qqInfoEndpoint,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (q *QQ) Name() string                 { return "qq" }
func (q *QQ) AuthorizationBaseURL() string { return q.authURL }
func (q *QQ) TokenEndpoint() string        { return q.tokenURL }
func (q *QQ) ClientID() string             { return q.clientID }
func (q *QQ) ClientSecret() string         { return q.clientSecret }
func (q *QQ) Scope() string                { return qqScope }

// AppendExtraAuthParams drops the trailing '&': QQ's authorize endpoint
// refuses URLs that end with a separator.
func (q *QQ) AppendExtraAuthParams(b *bytes.Buffer) {
	if b.Len() > 0 && b.Bytes()[b.Len()-1] == '&' {
		b.Truncate(b.Len() - 1)
	}
}

// ParseNonStandardTokenResponse parses QQ's url-encoded token body.
func (q *QQ) ParseNonStandardTokenResponse(body string) (TokenPair, bool) {
	params := parameterMap(body)
	return TokenPair{
		AccessToken:  params["access_token"],
		RefreshToken: params["refresh_token"],
	}, true
}

// FetchUserInfo resolves the QQ openid, then the profile. QQ rarely exposes
// a real email, so the participant address falls back to the microblog name
// or the openid under the t.qq.com domain.
func (q *QQ) FetchUserInfo(ctx context.Context, creds core.OAuthCredentials) (*core.AccountRecord, error) {
	openIDBody, err := q.get(ctx, q.openIDURL, url.Values{
		"access_token": {creds.AccessToken},
	})
	if err != nil {
		return nil, err
	}
	openID := parameterMap(openIDBody)["openid"]
	if openID == "" {
		return nil, fmt.Errorf("%w: moc2/me missing openid", ErrProtocolFormat)
	}
	userID := core.UserID(q.Name()[:1] + openID)

	infoBody, err := q.get(ctx, q.infoURL, url.Values{
		"access_token":       {creds.AccessToken},
		"oauth_consumer_key": {q.clientID},
		"openid":             {openID},
	})
	if err != nil {
		return nil, err
	}

	var info struct {
		Data struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(infoBody), &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolFormat, err)
	}

	email := info.Data.Email
	if email == "" && info.Data.Name != "" {
		email = info.Data.Name + "@t.qq.com"
	}
	if email == "" {
		email = openID + "@t.qq.com"
	}

	return &core.AccountRecord{
		UserID:        userID,
		ParticipantID: core.ParticipantID(email),
	}, nil
}

func (q *QQ) get(ctx context.Context, endpoint string, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := q.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s gave status %d", ErrUpstream, endpoint, resp.StatusCode)
	}
	return string(raw), nil
}

// parameterMap parses a "k=v&k2=v2" body. Values keep their raw form; QQ
// does not escape anything that matters here.
func parameterMap(body string) map[string]string {
	out := make(map[string]string)
	for _, kv := range strings.Split(body, "&") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		} else {
			out[parts[0]] = ""
		}
	}
	return out
}
