package api

import (
	"net/http"
)

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalog.Get(r.Context())
	resp := map[string]any{"catalog": cat, "forms": cat.Forms()}
	if err != nil {
		resp["load_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefreshCatalog drops the cached copy, reloads from the source and
// pushes the result to every open session. A failed reload keeps the
// previous catalog.
func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if err := s.cache.Invalidate(r.Context()); err != nil {
			s.log.Warn("catalog cache invalidate failed", "error", err)
		}
	}
	cat, err := s.catalog.Refresh(r.Context())
	if err != nil {
		s.log.Error("catalog refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   "catalog refresh failed: " + err.Error(),
			"catalog": cat,
		})
		return
	}
	pushed := s.sessions.Broadcast(cat)
	s.log.Info("catalog refreshed", "source", cat.Source, "terms", cat.Len(), "sessions", pushed)
	writeJSON(w, http.StatusOK, map[string]any{
		"catalog":  cat,
		"sessions": pushed,
	})
}
