package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goodow/moonauth/internal/auth"
	httperrors "github.com/goodow/moonauth/internal/http/errors"
	"github.com/goodow/moonauth/internal/metrics"
	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/security/xsrf"
	"github.com/goodow/moonauth/internal/store/core"
)

// accessDeniedMessage is what the user sees in the popup after declining
// the consent screen. Kept in the product's language, like the login page.
const accessDeniedMessage = "请点击上面任一按钮, 在新页面登录, 然后允许访问."

// exchangeProviderName is the provider whose client credentials gate the
// non-browser code exchange.
const exchangeProviderName = "google"

// CallbackController finishes the OAuth dance: the browser lands here with
// a code, the code becomes credentials, the credentials become an account
// record and a session.
type CallbackController struct {
	exchanger *auth.Exchanger
	registry  *auth.Registry
	accounts  core.AccountStore
	codes     *auth.CodeStore
	codec     *xsrf.Codec
}

func NewCallbackController(ex *auth.Exchanger, reg *auth.Registry, accounts core.AccountStore, codes *auth.CodeStore, codec *xsrf.Codec) *CallbackController {
	return &CallbackController{
		exchanger: ex,
		registry:  reg,
		accounts:  accounts,
		codes:     codes,
		codec:     codec,
	}
}

// HandleCallback is the browser-facing GET half of the flow.
//
// A transient exchange failure redirects the browser back to this same URL
// with a tryagain marker instead of retrying synchronously: the code has
// not been consumed server-side, so re-driving it is safe, and the
// connection is not held open across a slow upstream.
func (c *CallbackController) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Component("auth.callback"))
	q := r.URL.Query()

	if errCode := q.Get("error"); errCode != "" {
		desc := q.Get("error_description")
		log.Info("provider returned error",
			logger.String("error", errCode), logger.String("description", desc))
		msg := accessDeniedMessage
		if errCode != "access_denied" {
			msg = fmt.Sprintf("An error occurred (%s): %s", errCode, desc)
		}
		metrics.LoginCallbacks.WithLabelValues("unknown", "denied").Inc()
		writePopup(w, r, msg)
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("code and state are required"))
		return
	}

	providerName, corrToken, err := auth.ParseState(state)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadState.WithDetail(state))
		return
	}
	provider, ok := c.registry.Get(providerName)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnknownProvider.WithDetail(providerName))
		return
	}
	log = log.With(logger.Provider(providerName))

	creds, err := c.exchanger.Exchange(ctx, providerName, code)
	switch {
	case errors.Is(err, auth.ErrUpstreamTransient):
		log.Warn("transient exchange failure, bouncing browser back", logger.Err(err))
		metrics.LoginCallbacks.WithLabelValues(providerName, "retry").Inc()
		retryURL := r.URL.Path + "?code=" + url.QueryEscape(code) +
			"&state=" + url.QueryEscape(state) + "&tryagain=true"
		http.Redirect(w, r, retryURL, http.StatusFound)
		return
	case errors.Is(err, auth.ErrUpstreamInvalid):
		log.Warn("authorization code rejected", logger.Err(err))
		metrics.LoginCallbacks.WithLabelValues(providerName, "error").Inc()
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("authorization code rejected"))
		return
	case err != nil:
		log.Error("token exchange failed", logger.Err(err))
		metrics.LoginCallbacks.WithLabelValues(providerName, "error").Inc()
		httperrors.WriteError(w, httperrors.ErrUpstreamUnavailable.WithCause(err))
		return
	}

	uc := &auth.UserContext{Credentials: creds, Provider: provider}

	// The fetched record's identity is authoritative; nothing the client
	// asserted survives past this point.
	rec, err := provider.FetchUserInfo(ctx, *creds)
	if err != nil {
		log.Error("user info fetch failed", logger.Err(err))
		metrics.LoginCallbacks.WithLabelValues(providerName, "error").Inc()
		httperrors.WriteError(w, httperrors.ErrUpstreamUnavailable.WithCause(err))
		return
	}
	uc.UserID = rec.UserID
	uc.ParticipantID = rec.ParticipantID

	if err := c.accounts.PutAccount(ctx, uc.Record()); err != nil {
		log.Error("account write failed", logger.Err(err))
		metrics.LoginCallbacks.WithLabelValues(providerName, "error").Inc()
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}

	// The cookie login below stands on its own; a cache hiccup only breaks
	// the polling side channel, so it does not fail the whole callback.
	if err := c.codes.Put(ctx, corrToken, uc.UserID); err != nil {
		log.Warn("login code store failed", logger.Err(err))
	}

	sessionTok, err := c.codec.Issue(creds.AccessToken)
	if err != nil {
		log.Error("session token issue failed", logger.Err(err))
		metrics.LoginCallbacks.WithLabelValues(providerName, "error").Inc()
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	maxAge := int(c.codec.TTL().Seconds())
	http.SetCookie(w, &http.Cookie{Name: auth.UserIDKey, Value: string(uc.UserID), Path: "/", MaxAge: maxAge})
	http.SetCookie(w, &http.Cookie{Name: auth.TokenCookieKey, Value: sessionTok, Path: "/", MaxAge: maxAge})

	metrics.LoginCallbacks.WithLabelValues(providerName, "ok").Inc()
	log.Info("login committed",
		logger.UserID(uc.UserID.String()),
		logger.Participant(uc.ParticipantID.Address()))
	writePopup(w, r, "")
}

type exchangeResponse struct {
	UserID        string `json:"u"`
	ParticipantID string `json:"participantId"`
	AccessToken   string `json:"access_token"`
}

// HandleExchange is the non-browser POST half: a polling client trades the
// correlation code for a fresh session. Failure is an empty JSON object at
// HTTP 200 — the client just keeps polling until the code shows up or its
// own deadline passes.
func (c *CallbackController) HandleExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.PostFormValue("code")
	clientID := r.PostFormValue("client_id")
	clientSecret := r.PostFormValue("client_secret")
	if code == "" || clientID == "" || clientSecret == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("code, client_id and client_secret are required"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	rec := c.verifyExchange(ctx, clientID, clientSecret, code)
	if rec == nil || !rec.HasUsableCredentials() {
		_, _ = w.Write([]byte("{}"))
		return
	}

	sessionTok, err := c.codec.Issue(rec.Credentials.AccessToken)
	if err != nil {
		logger.From(ctx).Error("session token issue failed", logger.Err(err))
		_, _ = w.Write([]byte("{}"))
		return
	}

	_ = json.NewEncoder(w).Encode(exchangeResponse{
		UserID:        rec.UserID.String(),
		ParticipantID: rec.ParticipantID.Address(),
		AccessToken:   sessionTok,
	})
}

// verifyExchange checks the client credentials, consumes the one-time code
// and loads the account. The code is deleted by Consume before the account
// read, so no retry can replay a half-consumed code.
func (c *CallbackController) verifyExchange(ctx context.Context, clientID, clientSecret, code string) *core.AccountRecord {
	log := logger.From(ctx).With(logger.Component("auth.callback"))

	gateway, ok := c.registry.Get(exchangeProviderName)
	if !ok {
		log.Error("exchange gate provider not registered", logger.Provider(exchangeProviderName))
		return nil
	}
	if gateway.ClientID() != clientID ||
		subtle.ConstantTimeCompare([]byte(gateway.ClientSecret()), []byte(clientSecret)) != 1 {
		log.Debug("exchange client credentials mismatch")
		return nil
	}

	userID, err := c.codes.Consume(ctx, code)
	if errors.Is(err, auth.ErrCodeNotFound) {
		log.Debug("login code not found or already consumed")
		return nil
	}
	if err != nil {
		log.Error("login code consume failed", logger.Err(err))
		return nil
	}

	rec, err := c.accounts.GetAccount(ctx, userID)
	if err != nil {
		log.Error("account read failed", logger.UserID(userID.String()), logger.Err(err))
		return nil
	}
	return rec
}
