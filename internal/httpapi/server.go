// Package httpapi exposes ingestion and the dashboard queries over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/runnerr0/vitalsmon/internal/ingest"
	"github.com/runnerr0/vitalsmon/internal/report"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

// Options tunes a Server. Zero values disable the matching feature.
type Options struct {
	Logger *zap.Logger
	// Gatherer backs /metrics; nil omits the endpoint.
	Gatherer       prometheus.Gatherer
	CORSOrigins    []string
	RateLimit      float64 // accepted beacons per second
	Burst          int
	MaxRequestSize int64
	QueryTimeout   time.Duration
	// Now is the clock used for filter defaults.
	Now func() time.Time
}

// Server routes HTTP requests to the ingestion service and report engine.
type Server struct {
	ingest  *ingest.Service
	engine  *report.Engine
	store   storage.Store
	logger  *zap.Logger
	limiter *rate.Limiter
	opts    Options
	handler http.Handler
}

// New builds a Server. store serves raw listings and health checks.
func New(svc *ingest.Service, engine *report.Engine, store storage.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ingest: svc,
		engine: engine,
		store:  store,
		logger: opts.Logger,
		opts:   opts,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.handler = s.corsHandler().Handler(s.routes())
	return s
}

func (s *Server) corsHandler() *cors.Cors {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/metric", func(r chi.Router) {
		r.With(s.throttle).Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/average", s.handleAverage)
		r.Get("/count", s.handleCount)
		r.Get("/plot", s.handlePlot)
		r.Get("/summary", s.handleSummary)
	})

	return r
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
