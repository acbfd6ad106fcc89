// Package web implements local status api for convtrack. Exposes tracker state, history, queue depth,
// cancellation, visibility gate and prometheus metrics
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/convtrack/app/job"
	"github.com/umputun/convtrack/app/service"
)

//go:generate moq -out mocks/service.go -pkg mocks -skip-ensure -fmt goimports . Service

// Service defines application calls used by handlers, implemented by service.Service
type Service interface {
	State() service.State
	History() []job.HistoryEntry
	QueueDepth(ctx context.Context) (int, error)
	Cancel(ctx context.Context) error
}

// Visibility is the pause gate toggled by clients
type Visibility interface {
	Visible() bool
	Set(visible bool)
}

// Config holds server configuration
type Config struct {
	Service      Service
	Visibility   Visibility          // optional, visibility endpoint disabled if not set
	Registry     prometheus.Gatherer // optional, metrics endpoint disabled if not set
	PasswordHash string              // bcrypt hash for basic auth, empty to disable
	Version      string
	RateLimit    float64       // requests per second for mutating endpoints, default 5
	Timeout      time.Duration // remote calls timeout, default 10s
}

// Server represents the web server
type Server struct {
	Config
}

// New makes Server
func New(cfg Config) *Server {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Server{Config: cfg}
}

// Run starts the web server, blocking till ctx done
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("convtrack", "umputun", s.Version),
		rest.Ping,
		rest.SizeLimit(64*1024),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	if s.PasswordHash != "" {
		log.Printf("[INFO] authentication enabled for status api")
		router.Use(s.authMiddleware)
	}

	lmt := tollbooth.NewLimiter(s.RateLimit, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /state", s.handleState)
		api.HandleFunc("GET /history", s.handleHistory)
		api.HandleFunc("GET /queue", s.handleQueue)
		api.With(tollbooth.HTTPMiddleware(lmt)).HandleFunc("POST /cancel", s.handleCancel)
		if s.Visibility != nil {
			api.With(tollbooth.HTTPMiddleware(lmt)).HandleFunc("POST /visibility", s.handleVisibility)
		}
	})

	if s.Registry != nil {
		router.Handle("GET /metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	}
	return router
}
