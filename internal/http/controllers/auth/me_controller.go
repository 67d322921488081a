package auth

import (
	"encoding/json"
	"net/http"

	"github.com/goodow/moonauth/internal/auth"
	"github.com/goodow/moonauth/internal/http/middlewares"
	"github.com/goodow/moonauth/internal/observability/logger"
)

// MeController answers the RPC identity probe. Responses carry the XSSI
// prefix like every RPC body; clients strip it before parsing.
type MeController struct{}

func NewMeController() *MeController {
	return &MeController{}
}

type meResponse struct {
	UserID        string `json:"u"`
	ParticipantID string `json:"participantId"`
}

// Me reports who the request is authenticated as. Runs behind the RPC
// login gate, so an unauthenticated request never reaches it.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	uc := auth.UserContextFrom(r.Context())
	if !uc.IsLoggedIn() {
		// The gate should make this unreachable.
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	body, err := json.Marshal(meResponse{
		UserID:        uc.UserID.String(),
		ParticipantID: uc.ParticipantID.Address(),
	})
	if err != nil {
		logger.From(r.Context()).Error("me response marshal failed", logger.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(middlewares.XSSIPrefix))
	_, _ = w.Write(body)
}
