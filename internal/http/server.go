// Package http exposes the reward queries and purchase ingestion over a JSON API.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/middleware/ratelimit"
	"rewards/internal/middleware/security"
	"rewards/internal/middleware/trace"
	"rewards/internal/records"
)

// RewardQuerier answers reward queries.
type RewardQuerier interface {
	GetAllRewards(ctx context.Context) ([]core.AccountRewardSummary, error)
	GetRewardsForAccount(ctx context.Context, accountID string) (core.AccountRewardSummary, error)
}

// PurchaseIngester accepts new purchases.
type PurchaseIngester interface {
	Ingest(ctx context.Context, rec core.PurchaseRecord) (string, error)
}

// Options wires the server's collaborators. Rewards is required; the rest
// are optional.
type Options struct {
	Rewards RewardQuerier
	// Ingest mounts POST /api/purchases when set.
	Ingest PurchaseIngester
	// Ready is pinged by /readyz.
	Ready          records.Pinger
	Logger         *log.Logger
	MetricsEnabled bool
	RateLimitRPM   int
}

type Server struct {
	http.Server
	opts    Options
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		opts: opts,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitRPM,
		}),
		tracer: trace.NewMiddleware(clientIP),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(log.Middleware(s.opts.Logger))
	r.Use(s.tracer.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/rewards", s.handleAllRewards)
		r.Get("/rewards/{accountId}", s.handleAccountRewards)

		if s.opts.Ingest != nil {
			r.With(s.limiter.Middleware(clientIP, s.handleRateLimited)).
				Post("/purchases", s.handleCreatePurchase)
		}
	})

	if s.opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// Shutdown gracefully shuts down the server and the limiter cleanup goroutine
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// clientIP returns the caller address after chi's RealIP rewrite.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
