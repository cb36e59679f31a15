package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"groupdash/internal/analytics"
	"groupdash/internal/log"
	"groupdash/internal/pipeline"
	"groupdash/internal/services"
)

type statusResponse struct {
	Status      string                `json:"status"`
	Ready       bool                  `json:"ready"`
	Generation  uint64                `json:"generation"`
	LoadedAt    *time.Time            `json:"loadedAt,omitempty"`
	Diagnostics *pipeline.Diagnostics `json:"diagnostics,omitempty"`
}

type groupsResponse struct {
	Status string                   `json:"status"`
	Sort   string                   `json:"sort"`
	Dir    analytics.Direction      `json:"dir"`
	Counts map[analytics.Filter]int `json:"counts"`
	Rows   []analytics.GroupRow     `json:"rows"`
}

func (s *Server) status() statusResponse {
	resp := statusResponse{Status: s.loader.Status(), Ready: s.loader.Ready()}
	if snap := s.loader.Snapshot(); snap != nil {
		loadedAt := snap.LoadedAt
		resp.Generation = snap.Generation
		resp.LoadedAt = &loadedAt
		resp.Diagnostics = &snap.Diagnostics
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready once a snapshot has been committed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	if !s.loader.Ready() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, s.status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

// withSnapshot serves one view of the committed snapshot, or 503 until the
// first load commits.
func (s *Server) withSnapshot(view func(*pipeline.Snapshot) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.loader.Snapshot()
		if snap == nil {
			writeNotReady(w, s.loader.Status())
			return
		}
		writeJSON(w, http.StatusOK, view(snap))
	}
}

// handleGroups serves the detail table filtered by status and sorted by any
// column. Results are cached per snapshot generation.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	snap := s.loader.Snapshot()
	if snap == nil {
		writeNotReady(w, s.loader.Status())
		return
	}

	q := r.URL.Query()
	filter, err := analytics.ParseFilter(q.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := analytics.ParseDirection(q.Get("dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := q.Get("sort")
	if key == "" {
		key = analytics.DefaultSortKey
	}

	cacheKey := cacheKeyFor(snap.Generation, string(filter), key, string(dir))
	result, hit, err := s.queryCache.GetOrCompute(cacheKey, func() ([]analytics.GroupRow, error) {
		return analytics.SortGroupRows(analytics.FilterGroupRows(snap.Views.Groups, filter), key, dir)
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Groups query",
		log.FieldGeneration, snap.Generation,
		"filter", filter, "sort", key, "dir", dir, "cache_hit", hit)

	writeJSON(w, http.StatusOK, groupsResponse{
		Status: string(filter),
		Sort:   key,
		Dir:    dir,
		Counts: analytics.CountByFilter(snap.Views.Groups),
		Rows:   rows(result),
	})
}

// handleReload runs a full load. The load is detached from the request so a
// client disconnect does not abort it; the loader bounds it with its own
// fetch timeout.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	_, err := s.loader.Load(ctx)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.status())
	case errors.Is(err, services.ErrSuperseded):
		writeJSON(w, http.StatusAccepted, s.status())
	case errors.Is(err, services.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.FromContext(r.Context()).WarnContext(r.Context(), "Manual reload failed", log.FieldError, err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  s.loader.Status(),
			"status": s.status(),
		})
	}
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.tracer.GetMetrics()
	cs := s.queryCache.Stats()
	rl := s.reloadLimit.GetMetrics()
	sec := s.detector.GetMetrics()
	var gen uint64
	if snap := s.loader.Snapshot(); snap != nil {
		gen = snap.Generation
	}

	metric := func(name, kind, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, v)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_requests_in_flight", "gauge", "Requests currently being served", tm.InFlight)
	metric("http_request_duration_ms_avg", "gauge", "Average request latency", tm.AverageLatencyMs)
	metric("snapshot_generation", "gauge", "Generation of the committed snapshot", gen)
	metric("query_cache_hits_total", "counter", "Detail table cache hits", cs.Hits)
	metric("query_cache_misses_total", "counter", "Detail table cache misses", cs.Misses)
	metric("query_cache_entries", "gauge", "Detail table cache entries", cs.Size)
	metric("reload_rate_limited_total", "counter", "Reload requests rejected by the rate limiter", rl.TotalHits)
	metric("suspicious_requests_total", "counter", "Requests flagged as probes", sec.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.started).Seconds()))
}
