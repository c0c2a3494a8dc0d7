// Package gateway exposes the message engine over HTTP and streams
// escalations to operator consoles over WebSocket.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/rxflow/internal/config"
	"github.com/soyeahso/rxflow/internal/logging"
	"github.com/soyeahso/rxflow/internal/orchestrator"
	"github.com/soyeahso/rxflow/internal/version"
)

// Server is the rxflow HTTP + WebSocket gateway.
type Server struct {
	cfg       config.GatewayConfig
	log       *logging.Logger
	engine    *orchestrator.Orchestrator
	operators *OperatorHub
	turns     *turnSerializer
	version   string

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithOperators supplies a pre-built operator hub. Useful when the hub is
// also registered as an escalation notifier before the server exists.
func WithOperators(hub *OperatorHub) ServerOption {
	return func(s *Server) {
		s.operators = hub
	}
}

// New creates a gateway server fronting the given engine.
func New(cfg config.GatewayConfig, engine *orchestrator.Orchestrator, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log.Sub("gateway"),
		engine:  engine,
		turns:   newTurnSerializer(),
		version: version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.operators == nil {
		s.operators = NewOperatorHub(log.Sub("operators"))
	}
	return s
}

// Operators returns the hub streaming escalations to connected consoles.
// Register it as an escalation notifier to fan escalations out over WebSocket.
func (s *Server) Operators() *OperatorHub {
	return s.operators
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.Token)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Token == "" && s.cfg.Bind != "" && s.cfg.Bind != "loopback" {
		s.log.Warn().Msg("gateway bound beyond loopback without a token")
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Bind).
		Msg("gateway server ready")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.operators.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
