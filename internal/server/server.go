// Package server wires the Spark History tools and prompts into an MCP
// server and runs it on the configured transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
	"github.com/drutigliano19/spark-history-mcp/internal/metrics"
	"github.com/drutigliano19/spark-history-mcp/internal/prompts"
	"github.com/drutigliano19/spark-history-mcp/internal/tools"
)

const (
	Name = "spark-history-mcp"

	streamablePath = "/mcp"
	ssePath        = "/sse"
	shutdownGrace  = 10 * time.Second
)

var ErrUnknownTransport = errors.New("unknown transport")

type Server struct {
	cfg     *config.Config
	mcp     *mcp.Server
	servers []string
	ready   chan struct{}
}

// Clients builds one REST client per configured History Server.
func Clients(cfg *config.Config) (map[string]tools.SparkHistoryClient, error) {
	clients := make(map[string]tools.SparkHistoryClient, len(cfg.Servers))
	for _, name := range cfg.ServerNames() {
		c, err := sparkhistory.NewClient(name, cfg.Servers[name].ClientConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create client for server %s: %w", name, err)
		}
		clients[strings.ToLower(name)] = c
	}
	return clients, nil
}

// New registers every tool and prompt on a fresh MCP server.
func New(cfg *config.Config, clients map[string]tools.SparkHistoryClient, version string) (*Server, error) {
	defaultServer, err := cfg.DefaultServer()
	if err != nil {
		return nil, err
	}
	cacheDir := ""
	if cfg.Cache.Enabled {
		if cacheDir, err = cfg.Cache.Path(); err != nil {
			return nil, err
		}
	}
	config.SetTools(cfg.Tools)

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	t := tools.NewBaseTool(strings.ToLower(defaultServer), clients, cacheDir)
	tools.Register(mcpServer, t)
	prompts.Register(mcpServer)

	return &Server{
		cfg:     cfg,
		mcp:     mcpServer,
		servers: t.Servers(),
		ready:   make(chan struct{}),
	}, nil
}

// MCP exposes the underlying server, mostly for in-memory clients in tests.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Ready is closed once an HTTP transport is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Handler serves the MCP endpoint of transport together with health and
// metrics endpoints.
func (s *Server) Handler(transport string) (http.Handler, error) {
	getServer := func(*http.Request) *mcp.Server { return s.mcp }

	mux := http.NewServeMux()
	switch transport {
	case config.TransportStreamableHTTP:
		mux.Handle(streamablePath, mcp.NewStreamableHTTPHandler(getServer, nil))
	case config.TransportSSE:
		mux.Handle(ssePath, mcp.NewSSEHandler(getServer, nil))
	default:
		return nil, fmt.Errorf("%w: %q has no HTTP handler", ErrUnknownTransport, transport)
	}
	if path := s.cfg.Mcp.MetricsPath; path != "" {
		mux.Handle(path, metrics.Handler())
	}
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux, nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok\nservers: %s\n", strings.Join(s.servers, ", "))
}

// Run serves transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport string) error {
	switch transport {
	case config.TransportStdio:
		slog.Info("Server running", "transport", transport)
		if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to run stdio transport: %w", err)
		}
		return nil
	case config.TransportStreamableHTTP, config.TransportSSE:
		return s.serveHTTP(ctx, transport)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, transport)
	}
}

func (s *Server) serveHTTP(ctx context.Context, transport string) error {
	handler, err := s.Handler(transport)
	if err != nil {
		return err
	}
	addr := s.cfg.Mcp.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	slog.Info("Server listening", "address", ln.Addr().String(), "transport", transport)

	errCh := make(chan error, 1)
	go func() {
		close(s.ready)
		if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
}
