// ABOUTME: Gateway orchestrator that wires the HTTP server, agent, and store
// ABOUTME: Manages listeners, route registration, and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"

	"github.com/pepperlabs/pepper-gateway/internal/agent"
	"github.com/pepperlabs/pepper-gateway/internal/auth"
	"github.com/pepperlabs/pepper-gateway/internal/config"
	"github.com/pepperlabs/pepper-gateway/internal/store"
)

// Version is the gateway version reported by /health. Overridden at build
// time via -ldflags.
var Version = "dev"

// Gateway orchestrates the pepper-gateway server components.
// It owns the HTTP server, the agent invoker, and the usage store.
type Gateway struct {
	config      *config.Config
	invoker     agent.Invoker
	store       store.Store
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	// modelCreated is the timestamp advertised for the model in /v1/models.
	// Fixed at construction so the list is identical on every call.
	modelCreated int64

	requests *requestMetrics
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	tools := agent.NewBuiltinRegistry(logger.With("component", "tools"))
	invoker := agent.NewClient(cfg.Provider, tools, logger.With("component", "agent"))

	return newGateway(cfg, invoker, s, logger), nil
}

// newGateway assembles a Gateway from already-constructed dependencies.
// Tests use this directly to inject a stub invoker and an in-memory store.
func newGateway(cfg *config.Config, invoker agent.Invoker, s store.Store, logger *slog.Logger) *Gateway {
	gw := &Gateway{
		config:       cfg,
		invoker:      invoker,
		store:        s,
		logger:       logger.With("component", "gateway"),
		modelCreated: time.Now().Unix(),
		requests:     newRequestMetrics(),
	}

	mux := http.NewServeMux()
	gw.registerRoutes(mux, logger)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.requests.instrument(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw
}

// registerRoutes registers all HTTP routes on the mux. The chat and usage
// endpoints get the bearer auth middleware when a token is configured;
// without one the gateway runs in dev mode and accepts everything.
func (g *Gateway) registerRoutes(mux *http.ServeMux, logger *slog.Logger) {
	// Public endpoints - no auth by design
	mux.HandleFunc("/", g.handleWelcome)
	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/v1/models", g.handleListModels)
	mux.HandleFunc("/test", g.handleTest)

	if g.config.Auth.BearerToken != "" {
		verifier := auth.NewStaticVerifier([]byte(g.config.Auth.BearerToken))
		authMiddleware := auth.HTTPAuthMiddleware(verifier)
		mux.Handle("/v1/chat/completions", authMiddleware(http.HandlerFunc(g.handleChatCompletions)))
		mux.Handle("/v1/usage", authMiddleware(http.HandlerFunc(g.handleUsageStats)))
		logger.Info("HTTP auth middleware enabled")
	} else {
		mux.HandleFunc("/v1/chat/completions", g.handleChatCompletions)
		mux.HandleFunc("/v1/usage", g.handleUsageStats)
		logger.Warn("HTTP auth disabled - no bearer_token configured")
	}

	if g.config.Metrics.Enabled {
		mux.Handle(g.config.Metrics.Path, &metricsHandler{token: g.config.Metrics.Token})
		logger.Info("metrics endpoint enabled", "path", g.config.Metrics.Path)
	}
}

// setupListener creates a listener based on configuration (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		if g.config.Server.HTTPAddr != "" {
			g.logger.Warn("server.http_addr is ignored when tailscale is enabled",
				"http_addr", g.config.Server.HTTPAddr,
			)
		}
		return g.setupTailscaleListener(ctx)
	}

	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Run starts the gateway server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the
// server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the gateway server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if g.tsnetServer != nil {
		if err := g.tsnetServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tailscale shutdown: %w", err))
		}
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
