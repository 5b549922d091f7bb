package api

import (
	"net/http"
	"os"
)

func (s *Server) healthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthReady reports whether uploads can be accepted.
func (s *Server) healthReady(w http.ResponseWriter, _ *http.Request) {
	info, err := os.Stat(s.StorageSvc.Dir())
	if err != nil || !info.IsDir() {
		writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "uploads folder is not available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ready",
		"cachedReports": s.CacheSvc.Len(),
	})
}
