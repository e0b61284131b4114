package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidfriends/friendgraph/internal/logging"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	// Database is optional; when set a failed check reports 503.
	Database HealthChecker
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Database == nil {
		respondJSON(ctx, w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.Database(checkCtx); err != nil {
		logging.FromContext(ctx).Warn("database health check failed", "error", err)
		respondJSON(ctx, w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}
