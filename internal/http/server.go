// Package http serves the committed dashboard snapshot as read-only JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"groupdash/internal/analytics"
	"groupdash/internal/cache"
	"groupdash/internal/log"
	"groupdash/internal/middleware/ratelimit"
	"groupdash/internal/middleware/security"
	"groupdash/internal/middleware/trace"
	"groupdash/internal/pipeline"
)

// SnapshotLoader holds the committed snapshot and runs reloads.
type SnapshotLoader interface {
	Snapshot() *pipeline.Snapshot
	Status() string
	Ready() bool
	Load(ctx context.Context) (*pipeline.Snapshot, error)
}

// Options configures the server. Zero values pick defaults.
type Options struct {
	Logger         *log.Logger
	QueryCacheSize int
	QueryCacheTTL  time.Duration
	ReloadLimit    ratelimit.Config
	// TrustedProxies are CIDRs whose forwarding headers are honoured in
	// addition to loopback and private networks.
	TrustedProxies []string
}

type Server struct {
	http.Server

	loader  SnapshotLoader
	logger  *log.Logger
	started time.Time

	queryCache   *cache.QueryCache[[]analytics.GroupRow]
	cacheManager *cache.Manager
	reloadLimit  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, loader SnapshotLoader, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.QueryCacheSize <= 0 {
		opts.QueryCacheSize = 256
	}
	if opts.QueryCacheTTL <= 0 {
		opts.QueryCacheTTL = 30 * time.Minute
	}
	if opts.ReloadLimit.Requests <= 0 {
		opts.ReloadLimit = ratelimit.Config{Requests: 6, Window: time.Minute}
	}

	s := &Server{
		loader:       loader,
		logger:       logger.WithComponent(log.ComponentHTTP),
		started:      time.Now(),
		queryCache:   cache.NewQueryCache[[]analytics.GroupRow](opts.QueryCacheSize, opts.QueryCacheTTL),
		cacheManager: cache.NewManager(logger),
		reloadLimit:  ratelimit.NewLimiter(opts.ReloadLimit),
		detector:     security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.cacheManager.Register(s.queryCache)
	s.cacheManager.StartCleanup(context.Background(), 10*time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/summary", s.withSnapshot(func(snap *pipeline.Snapshot) any { return snap.Views.Summary }))
	mux.HandleFunc("GET /api/timeline", s.withSnapshot(func(snap *pipeline.Snapshot) any { return rows(snap.Views.Timeline) }))
	mux.HandleFunc("GET /api/member-visitor", s.withSnapshot(func(snap *pipeline.Snapshot) any { return rows(snap.Views.MemberVisitor) }))
	mux.HandleFunc("GET /api/consistency", s.withSnapshot(func(snap *pipeline.Snapshot) any { return rows(snap.Views.Consistency) }))
	mux.HandleFunc("GET /api/top-groups", s.withSnapshot(func(snap *pipeline.Snapshot) any { return rows(snap.Views.TopGroups) }))
	mux.HandleFunc("GET /api/visitor-trend", s.withSnapshot(func(snap *pipeline.Snapshot) any { return rows(snap.Views.VisitorTrend) }))
	mux.HandleFunc("GET /api/groups", s.handleGroups)

	reload := s.reloadLimit.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	})
	mux.Handle("POST /api/reload", reload(http.HandlerFunc(s.handleReload)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.reloadLimit.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// rows keeps empty views encoded as [] rather than null.
func rows[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
