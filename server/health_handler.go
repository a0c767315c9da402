package server

import (
	"net/http"
	"time"
)

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"service": s.config.GetAppName(),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
