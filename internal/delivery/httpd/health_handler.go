package httpd

import (
	"net/http"
	"time"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if err := h.submissionService.Ping(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Health check database ping failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"service":   "grading-service",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}
