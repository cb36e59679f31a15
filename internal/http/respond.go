package http

import (
	"encoding/json"
	"net/http"

	"groupdash/internal/cache"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeNotReady answers before the first snapshot commits. The body carries
// the load status so a client can show progress or the failure.
func writeNotReady(w http.ResponseWriter, status string) {
	w.Header().Set("Retry-After", "5")
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"error":  "no data loaded",
		"status": status,
	})
}

func cacheKeyFor(generation uint64, filter, sortKey, dir string) string {
	return cache.QueryKey(generation, filter, sortKey, dir)
}
