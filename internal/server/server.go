// Package server assembles the engine's HTTP + WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/halcyoncap/arbengine/internal/server/handler"
	"github.com/halcyoncap/arbengine/internal/server/middleware"
	"github.com/halcyoncap/arbengine/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port   int
	APIKey string
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Arbitrage *handler.ArbitrageHandler
	Custody   *handler.CustodyHandler
	Results   *handler.ResultsHandler
}

// Server is the engine's API surface: mutating operations for the operator
// and the emitted-record stream for observers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires the middleware chain. The health
// endpoint is unauthenticated; everything else requires the operator's API
// key, which the auth middleware maps to the operator principal.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handlers.Health.HealthCheck)

	authed := http.NewServeMux()
	authed.HandleFunc("POST /api/v1/arbitrage/auction-to-amm", handlers.Arbitrage.AuctionToAMM)
	authed.HandleFunc("POST /api/v1/arbitrage/amm-to-auction", handlers.Arbitrage.AMMToAuction)
	authed.HandleFunc("POST /api/v1/custody/base-out", handlers.Custody.TransferBaseOut)
	authed.HandleFunc("POST /api/v1/custody/wrapped-out", handlers.Custody.WithdrawWrappedOut)
	authed.HandleFunc("POST /api/v1/custody/token-out", handlers.Custody.TransferTokenOut)
	authed.HandleFunc("POST /api/v1/custody/token-in", handlers.Custody.DepositTokenIn)
	authed.HandleFunc("POST /api/v1/custody/claim", handlers.Custody.ClaimRound)
	authed.HandleFunc("GET /api/v1/results", handlers.Results.ListRecent)
	if wsHub != nil {
		authed.HandleFunc("GET /ws/results", wsHub.HandleWS)
	}
	mux.Handle("/", middleware.Auth(cfg.APIKey)(authed))

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * time.Minute, // flows block until the venues settle
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}
