package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/goodow/moonauth/internal/cache"
	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/store/core"
)

// HealthController reports whether the service's backends answer.
type HealthController struct {
	accounts core.AccountStore
	cache    cache.Client
}

func NewHealthController(accounts core.AccountStore, c cache.Client) *HealthController {
	return &HealthController{accounts: accounts, cache: c}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}

	if err := c.accounts.Ping(ctx); err != nil {
		logger.From(r.Context()).Warn("account store ping failed", logger.Err(err))
		resp.Status = "degraded"
		resp.Checks["store"] = err.Error()
	} else {
		resp.Checks["store"] = "ok"
	}

	if err := c.cache.Ping(ctx); err != nil {
		logger.From(r.Context()).Warn("cache ping failed", logger.Err(err))
		resp.Status = "degraded"
		resp.Checks["cache"] = err.Error()
	} else {
		resp.Checks["cache"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
