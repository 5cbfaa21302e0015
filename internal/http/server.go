// Package http serves the trip collections as a JSON API on top of the
// cache-backed services.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	applog "viagem/internal/log"
	"viagem/internal/middleware/ratelimit"
	"viagem/internal/middleware/security"
	"viagem/internal/middleware/trace"
	"viagem/internal/services"
)

// Options tunes the server; zero values pick defaults.
type Options struct {
	// Countries lists the trip countries; empty asks the backend.
	Countries         []string
	RequestsPerMinute int
	BlockSuspicious   bool
	// Ready reports whether dependencies are usable, for /readyz.
	Ready  func(context.Context) error
	Logger *applog.Logger
}

type Server struct {
	http.Server
	trip      *services.Trip
	countries []string
	ready     func(context.Context) error

	logger   *applog.Logger
	events   *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, trip *services.Trip, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	rl := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		rl.RequestsPerMinute = opts.RequestsPerMinute
	}

	detector := security.NewDetector()
	detector.Block = opts.BlockSuspicious

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		trip:      trip,
		countries: opts.Countries,
		ready:     opts.Ready,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentServices)),
		limiter:   ratelimit.NewLimiter(rl),
		detector:  detector,
	}
	s.tracer = trace.NewMiddleware(detector.ExtractClientIP, logger)
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(applog.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(applog.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, writeRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/countries", s.handleCountries)
		r.Get("/summary", s.handleSummary)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Get("/{id}", s.handleGetBudget)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListAllExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/{country}", s.handleListExpenses)
			r.Get("/{country}/{id}", s.handleGetExpense)
			r.Put("/{country}/{id}", s.handleUpdateExpense)
			r.Delete("/{country}/{id}", s.handleDeleteExpense)
		})

		r.Route("/attractions", func(r chi.Router) {
			r.Post("/", s.handleCreateAttraction)
			r.Get("/{country}", s.handleListAttractions)
			r.Post("/{country}/reorder", s.handleReorderAttractions)
			r.Get("/{country}/{id}", s.handleGetAttraction)
			r.Put("/{country}/{id}", s.handleUpdateAttraction)
			r.Delete("/{country}/{id}", s.handleDeleteAttraction)
		})

		r.Route("/checklist", func(r chi.Router) {
			r.Get("/", s.handleListChecklist)
			r.Post("/", s.handleCreateChecklistItem)
			r.Get("/{id}", s.handleGetChecklistItem)
			r.Put("/{id}", s.handleUpdateChecklistItem)
			r.Post("/{id}/toggle", s.handleToggleChecklistItem)
			r.Delete("/{id}", s.handleDeleteChecklistItem)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", s.handleListReservations)
			r.Post("/", s.handleCreateReservation)
			r.Get("/{id}", s.handleGetReservation)
			r.Put("/{id}", s.handleUpdateReservation)
			r.Delete("/{id}", s.handleDeleteReservation)
		})
	})

	return r
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics snapshots request, rate limit and detection counters.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics, security.DetectionMetrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics(), s.detector.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
