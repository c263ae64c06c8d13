// Package api exposes the almanac query surface over HTTP+JSON: frame
// info, translations, rotations, AER (single and series), eclipse and
// line-of-sight checks.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/SwitchbackEngineer/anise/almanac"
	"github.com/SwitchbackEngineer/anise/internal/auth"
	"github.com/SwitchbackEngineer/anise/internal/health"
	"github.com/SwitchbackEngineer/anise/internal/metrics"
	"github.com/SwitchbackEngineer/anise/internal/series"
)

// Config holds the server tunables loaded from environment variables.
type Config struct {
	Addr            string
	TrustProxy      bool
	RatePerSecond   float64
	RateBurst       int
	SeriesMaxPoints int
}

// Server holds the HTTP server and its dependencies. The almanac snapshot
// is fixed at construction; reloading kernels means starting a new server
// with the new snapshot.
type Server struct {
	httpServer *http.Server
	alm        *almanac.Almanac
	pool       *series.Pool
	cfg        Config
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server over the almanac snapshot.
func NewServer(cfg Config, alm *almanac.Almanac, pool *series.Pool, authCfg auth.Config, logger *slog.Logger) *Server {
	if cfg.SeriesMaxPoints <= 0 {
		cfg.SeriesMaxPoints = 100000
	}
	s := &Server{alm: alm, pool: pool, cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return alm.NumSPK() > 0 }))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/info", s.handleInfo)
	mux.HandleFunc("GET /api/v1/frame", s.handleFrameInfo)
	mux.HandleFunc("GET /api/v1/translate", s.handleTranslate)
	mux.HandleFunc("GET /api/v1/rotate", s.handleRotate)
	mux.HandleFunc("GET /api/v1/aer", s.handleAER)
	mux.HandleFunc("GET /api/v1/aer/series", s.handleAERSeries)
	mux.HandleFunc("GET /api/v1/eclipse", s.handleEclipse)
	mux.HandleFunc("GET /api/v1/los", s.handleLOS)

	limiter := newIPLimiter(cfg.RatePerSecond, cfg.RateBurst)

	// Middleware chain: metrics -> logging -> rate limit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	if cfg.RatePerSecond > 0 {
		handler = limiter.middleware(cfg.TrustProxy)(handler)
	}
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware-wrapped handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
