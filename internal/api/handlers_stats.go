package api

import (
	"net/http"
)

func (s *Server) handleNotionStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "notion stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{
		"api_url": s.cfg.NotionAPIURL,
		"stats":   s.stats.Snapshot(),
	})
}
