package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/store/core"
)

// Fetcher performs provider API requests on behalf of a logged-in user,
// refreshing the access token once when the provider rejects it. Refreshed
// credentials are written back to both the user context and the account
// store so later requests pick them up.
type Fetcher struct {
	registry  *Registry
	exchanger *Exchanger
	store     core.AccountStore
	client    *http.Client
}

func NewFetcher(reg *Registry, ex *Exchanger, store core.AccountStore) *Fetcher {
	return &Fetcher{
		registry:  reg,
		exchanger: ex,
		store:     store,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Do sends req with the user's access token attached. On a 401 it attempts
// one refresh and retries; when no refresh is possible or the refresh is
// rejected, ErrNeedNewToken tells the caller to force a full re-login.
func (f *Fetcher) Do(ctx context.Context, uc *UserContext, req *http.Request) (*http.Response, error) {
	if uc == nil || uc.Credentials == nil || uc.Credentials.AccessToken == "" {
		return nil, ErrNeedNewToken
	}

	req.Header.Set(authorizationHeader, bearerPrefix+uc.Credentials.AccessToken)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if err := f.RefreshCredentials(ctx, uc); err != nil {
		return nil, err
	}

	retry := req.Clone(ctx)
	retry.Header.Set(authorizationHeader, bearerPrefix+uc.Credentials.AccessToken)
	return f.client.Do(retry)
}

// RefreshCredentials exchanges the refresh token for a new access token and
// persists the updated record. An absent refresh token, or a provider that
// rejects the refresh, means the grant is gone for good: ErrNeedNewToken.
// Transient provider failures are returned as-is so the caller can decide
// whether trying again later makes sense.
func (f *Fetcher) RefreshCredentials(ctx context.Context, uc *UserContext) error {
	log := logger.From(ctx).With(logger.Component("auth.fetcher"), logger.UserID(uc.UserID.String()))

	refreshToken := ""
	if uc.Credentials != nil {
		refreshToken = uc.Credentials.RefreshToken
	}
	if refreshToken == "" {
		return ErrNeedNewToken
	}

	provider, ok := uc.ResolveProvider(f.registry)
	if !ok {
		return fmt.Errorf("%w: no provider for user %s", ErrUnknownProvider, uc.UserID)
	}

	accessToken, err := f.exchanger.Refresh(ctx, provider.Name(), refreshToken)
	if err != nil {
		if errors.Is(err, ErrUpstreamTransient) {
			return err
		}
		// 4xx or a garbled body on refresh: treat as revoked.
		log.Warn("refresh rejected, credentials presumed revoked", logger.Err(err))
		return fmt.Errorf("%w: %v", ErrNeedNewToken, err)
	}

	uc.Credentials = &core.OAuthCredentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if err := f.store.PutAccount(ctx, uc.Record()); err != nil {
		return fmt.Errorf("auth: persist refreshed credentials: %w", err)
	}
	log.Info("access token refreshed", logger.Provider(provider.Name()))
	return nil
}
