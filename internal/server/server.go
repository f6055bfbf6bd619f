// Package server exposes the dashboard over HTTP: a JSON API for view models,
// entities, centroids and exports, a Prometheus endpoint, and the embedded page.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/inetdash/internal/dashboard"
	"github.com/sells-group/inetdash/internal/metrics"
)

// Options configures the HTTP handler.
type Options struct {
	CORSOrigins []string
	// RateLimit is the sustained API request rate per second; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server serves one dashboard service.
type Server struct {
	svc     *dashboard.Service
	metrics *metrics.Manager
	limiter *rate.Limiter
	opts    Options
	log     *zap.Logger
}

// New creates a Server. m may be nil, in which case /metrics is not mounted.
func New(svc *dashboard.Service, m *metrics.Manager, opts Options) *Server {
	s := &Server{
		svc:     svc,
		metrics: m,
		opts:    opts,
		log:     zap.L().With(zap.String("component", "server")),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	s.publishDataset(svc.Dataset())
	return s
}

// Reload serves ds from now on, discarding views cached from the previous
// dataset.
func (s *Server) Reload(ds *dashboard.Dataset) {
	s.svc.Reload(ds)
	s.publishDataset(ds)
	s.log.Info("dataset reloaded",
		zap.Int("records", len(ds.Records)),
		zap.Int("centroids", len(ds.Centroids)),
		zap.Int("warnings", len(ds.Warnings)),
	)
}

func (s *Server) publishDataset(ds *dashboard.Dataset) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetDataset(len(ds.Records), len(ds.Centroids), len(ds.Entities)-1, len(ds.Warnings))
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/entities", s.handleEntities)
		r.Get("/view", s.handleView)
		r.Get("/centroids", s.handleCentroids)
		r.Get("/export", s.handleExport)
	})

	r.Handle("/*", staticHandler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// ListenAndServe serves on port until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}
