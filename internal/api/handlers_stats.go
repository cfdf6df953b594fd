package api

import (
	"net/http"
)

func (s *Server) handleValidationStats(w http.ResponseWriter, r *http.Request) {
	if s.latency == nil {
		jsonError(w, "validation stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.Len(),
		"stats":    s.latency.Snapshot(),
	})
}
