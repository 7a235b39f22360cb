// Package rpc serves the read-only query API over deployed collections.
package rpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftwrapped/deploy"
	"nftwrapped/native/collection"
)

// Backend is the query capability served by the API.
type Backend interface {
	Addresses() deploy.Addresses
	Summary(name string) (*collection.Summary, error)
	Token(name string, id uint64) (*deploy.Token, error)
	Proof(addr common.Address) ([]common.Hash, bool)
}

// Config captures the dependencies required to construct the server.
type Config struct {
	Backend   Backend
	Logger    *slog.Logger
	RateLimit RateLimit
	// Metrics is served on /metrics. Defaults to the process-wide registry
	// merged with the request metrics of this server.
	Metrics http.Handler
}

// Server encapsulates dependencies for the HTTP API.
type Server struct {
	backend Backend
	logger  *slog.Logger
	limiter *RateLimiter
	obs     *Observability
	metrics http.Handler

	router http.Handler
}

// New constructs the query router.
func New(cfg Config) (*Server, error) {
	if cfg.Backend == nil {
		return nil, errors.New("rpc: backend required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{
		backend: cfg.Backend,
		logger:  logger.With(slog.String("component", "rpc")),
		limiter: NewRateLimiter(cfg.RateLimit),
		obs:     NewObservability("nftwrapped-rpc", logger),
		metrics: cfg.Metrics,
	}
	if srv.metrics == nil {
		gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, srv.obs.Registry()}
		srv.metrics = promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metrics)

	r.Group(func(api chi.Router) {
		api.Use(s.limiter.Middleware)
		api.With(s.obs.Middleware("contracts")).Get("/contracts", s.handleContracts)
		api.With(s.obs.Middleware("collection")).Get("/collections/{name}", s.handleCollection)
		api.With(s.obs.Middleware("token")).Get("/collections/{name}/tokens/{id}", s.handleToken)
		api.With(s.obs.Middleware("proof")).Get("/whitelist/proof/{address}", s.handleProof)
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	s.logger.Info("query api listening", slog.String("address", addr))
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
