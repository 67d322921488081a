package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/goodow/moonauth/internal/http/errors"
	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/store/core"
)

// AccountsController exposes account inspection and removal to admins.
type AccountsController struct {
	accounts core.AccountStore
}

func NewAccountsController(accounts core.AccountStore) *AccountsController {
	return &AccountsController{accounts: accounts}
}

type accountResponse struct {
	UserID         string `json:"userId"`
	ParticipantID  string `json:"participantId"`
	HasCredentials bool   `json:"hasCredentials"`
	HasRefresh     bool   `json:"hasRefresh"`
}

// Get returns one account's metadata. Tokens themselves are never exposed,
// only whether they exist.
func (c *AccountsController) Get(w http.ResponseWriter, r *http.Request) {
	userID := core.UserID(chi.URLParam(r, "userID"))

	rec, err := c.accounts.GetAccount(r.Context(), userID)
	if errors.Is(err, core.ErrNotFound) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	}
	if err != nil {
		logger.From(r.Context()).Error("account read failed", logger.UserID(userID.String()), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}

	resp := accountResponse{
		UserID:         rec.UserID.String(),
		ParticipantID:  rec.ParticipantID.Address(),
		HasCredentials: rec.Credentials != nil,
	}
	if rec.Credentials != nil {
		resp.HasRefresh = rec.Credentials.RefreshToken != ""
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(resp)
}

// Delete removes an account and with it the user's stored credentials.
// Deleting an absent account succeeds: the end state is the same.
func (c *AccountsController) Delete(w http.ResponseWriter, r *http.Request) {
	userID := core.UserID(chi.URLParam(r, "userID"))

	if err := c.accounts.DeleteAccount(r.Context(), userID); err != nil {
		logger.From(r.Context()).Error("account delete failed", logger.UserID(userID.String()), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}

	logger.From(r.Context()).Info("account deleted", logger.UserID(userID.String()))
	w.WriteHeader(http.StatusNoContent)
}
