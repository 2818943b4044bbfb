// Package devproxy is the development reverse proxy. It forwards /api to
// the backend so that a browser client and the backend share one origin,
// and exposes health probes and Prometheus metrics next to it.
package devproxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/parkspot/internal/health"
	"github.com/felixgeelhaar/parkspot/internal/log"
	"github.com/felixgeelhaar/parkspot/internal/metrics"
)

// APIPrefix is forwarded to the backend unchanged
const APIPrefix = "/api"

// Config holds server configuration.
type Config struct {
	// Listen is the listen address (e.g. ":8081").
	Listen string

	// Target is the backend origin, e.g. http://localhost:5000.
	Target string

	// ShutdownTimeout is how long connections may drain. Defaults to 10s.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout defaults to 10s.
	ReadHeaderTimeout time.Duration
}

// Server is the dev proxy.
type Server struct {
	cfg        Config
	target     *url.URL
	probes     *health.Probes
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	logger     *log.Logger
	handler    http.Handler
	httpServer *http.Server
	inShutdown atomic.Bool
}

// New builds the proxy. probes, m and gatherer may be nil, in which case
// the matching endpoints are not mounted.
func New(cfg Config, probes *health.Probes, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *log.Logger) (*Server, error) {
	target, err := url.Parse(cfg.Target)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q", cfg.Target)
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Nop()
	}

	s := &Server{
		cfg:      cfg,
		target:   target,
		probes:   probes,
		metrics:  m,
		gatherer: gatherer,
		logger:   logger,
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if s.probes != nil {
		r.Get("/healthz", s.handleReadiness)
		r.Get("/health/live", s.handleLiveness)
		r.Get("/health/ready", s.handleReadiness)
	}
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.HandlerFor(s.gatherer))
	}

	proxy := s.reverseProxy()
	r.With(s.observe).Handle(APIPrefix, proxy)
	r.With(s.observe).Handle(APIPrefix+"/*", proxy)
	return r
}

// Handler returns the proxy's router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) reverseProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(s.target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Warn("backend request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err.Error(),
			)
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error": "backend unavailable",
			})
		},
	}
}

// observe logs and measures proxied requests.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.ObserveProxy(r.Method, status, elapsed)
		}
		s.logger.Debug("proxied",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves until ctx is cancelled, then drains connections
// for at most ShutdownTimeout. ready, if non-nil, receives the bound
// address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	s.logger.Info("dev proxy listening", "addr", ln.Addr().String(), "target", s.target.String())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	s.inShutdown.Store(true)
	if s.probes != nil {
		s.probes.MarkShutdown()
	}
	s.httpServer.SetKeepAlivesEnabled(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("dev proxy shutting down")
	return s.httpServer.Shutdown(ctx)
}

// IsShuttingDown returns whether the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeProbe(w, s.probes.Liveness(r.Context()))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.writeProbe(w, s.probes.Readiness(r.Context()))
}

func (s *Server) writeProbe(w http.ResponseWriter, result *health.ProbeResult) {
	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
