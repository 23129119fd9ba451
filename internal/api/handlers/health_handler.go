package handlers

import (
	"context"
	"net/http"

	"github.com/isdelr/ecofinds/internal/monitoring"
)

// HealthChecker reports the state of the application's dependencies.
type HealthChecker interface {
	Check(ctx context.Context) monitoring.Health
}

// HealthHandler serves /healthz.
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Serve reports health as JSON; 503 when the database is unreachable.
func (h *HealthHandler) Serve(w http.ResponseWriter, r *http.Request) {
	health := h.checker.Check(r.Context())
	status := http.StatusOK
	if !health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
