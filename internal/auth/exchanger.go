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

	"github.com/goodow/moonauth/internal/metrics"
	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/security/token"
	"github.com/goodow/moonauth/internal/store/core"
)

// Exchanger drives the authorization-code and refresh-token exchanges
// against a registered Provider, producing normalized credentials.
type Exchanger struct {
	registry    *Registry
	callbackURL string
	client      *http.Client
}

func NewExchanger(reg *Registry, callbackURL string) *Exchanger {
	return &Exchanger{
		registry:    reg,
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// urlParam appends "key=value&" to b, query-escaped. Empty values are
// skipped entirely. Every parameter leaves a trailing '&' behind; providers
// that reject it truncate in AppendExtraAuthParams.
func urlParam(b *bytes.Buffer, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
	b.WriteByte('&')
}

// BuildAuthorizationURL builds the browser-facing authorization redirect
// URL. corrToken is the correlation half of the state parameter; when empty
// a random 8-byte base64 token is generated. The full state is always
// "<providerName> <corrToken>" so the callback can recover the provider.
func (e *Exchanger) BuildAuthorizationURL(providerName, corrToken string) (string, error) {
	p, ok := e.registry.Get(providerName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}
	if corrToken == "" {
		t, err := token.Random(8)
		if err != nil {
			return "", err
		}
		corrToken = t
	}

	var b bytes.Buffer
	b.WriteString(p.AuthorizationBaseURL())
	b.WriteByte('?')
	urlParam(&b, "response_type", "code")
	urlParam(&b, "client_id", p.ClientID())
	urlParam(&b, "redirect_uri", e.callbackURL)
	urlParam(&b, "scope", p.Scope())
	urlParam(&b, "state", providerName+" "+corrToken)
	p.AppendExtraAuthParams(&b)
	return b.String(), nil
}

// ParseState splits a callback state into (providerName, corrToken).
// Anything but exactly two whitespace-separated fields is ErrBadState.
func ParseState(state string) (providerName, corrToken string, err error) {
	fields := strings.Fields(state)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrBadState, state)
	}
	return fields[0], fields[1], nil
}

// Exchange swaps an authorization code for credentials. Transient failures
// are safe for the caller to re-drive through the browser because the code
// has not been consumed server-side yet.
func (e *Exchanger) Exchange(ctx context.Context, providerName, code string) (*core.OAuthCredentials, error) {
	pair, err := e.grant(ctx, providerName, false, code)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues(providerName, "authorization_code", "error").Inc()
		return nil, err
	}
	metrics.TokenExchanges.WithLabelValues(providerName, "authorization_code", "ok").Inc()
	return &core.OAuthCredentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh swaps a refresh token for a new access token. A failure here may
// mean revocation, so callers must not retry blindly.
func (e *Exchanger) Refresh(ctx context.Context, providerName, refreshToken string) (string, error) {
	pair, err := e.grant(ctx, providerName, true, refreshToken)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues(providerName, "refresh_token", "error").Inc()
		return "", err
	}
	metrics.TokenExchanges.WithLabelValues(providerName, "refresh_token", "ok").Inc()
	return pair.AccessToken, nil
}

func (e *Exchanger) grant(ctx context.Context, providerName string, isRefresh bool, codeOrRefreshToken string) (TokenPair, error) {
	log := logger.From(ctx).With(logger.Component("auth.exchanger"), logger.Provider(providerName))

	p, ok := e.registry.Get(providerName)
	if !ok {
		return TokenPair{}, fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}

	form := url.Values{}
	if isRefresh {
		form.Set("refresh_token", codeOrRefreshToken)
		form.Set("grant_type", "refresh_token")
	} else {
		form.Set("code", codeOrRefreshToken)
		form.Set("redirect_uri", e.callbackURL)
		form.Set("grant_type", "authorization_code")
	}
	form.Set("client_id", p.ClientID())
	form.Set("client_secret", p.ClientSecret())

	start := time.Now()
	body, err := e.post(ctx, p.TokenEndpoint(), form)
	metrics.ExchangeLatency.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("token exchange failed", logger.Bool("refresh", isRefresh), logger.Err(err))
		return TokenPair{}, err
	}

	if pair, ok := p.ParseNonStandardTokenResponse(body); ok {
		if pair.AccessToken == "" {
			return TokenPair{}, fmt.Errorf("%w: no access_token in response", ErrUpstreamInvalid)
		}
		return pair, nil
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		log.Warn("token response is not json", logger.Bool("refresh", isRefresh), logger.Err(err))
		return TokenPair{}, fmt.Errorf("%w: %v", ErrProtocolFormat, err)
	}
	if resp.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("%w: no access_token in response", ErrUpstreamInvalid)
	}
	return TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// post sends a form POST and classifies the outcome: connection failures
// and 5xx are transient, any other non-200 is invalid.
func (e *Exchanger) post(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamTransient, err)
	}
	body := string(raw)

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: %s gave %d: %s", ErrUpstreamTransient, endpoint, resp.StatusCode, body)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: %s gave %d: %s", ErrUpstreamInvalid, endpoint, resp.StatusCode, body)
	}
	return body, nil
}
