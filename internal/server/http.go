package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coverletter/internal/instrumentation"
)

// MCPEndpoint is the path of the streamable-http MCP transport.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	Addr string

	// AllowRemote permits binding to non-loopback addresses.
	AllowRemote bool

	// DisableStreaming makes /mcp answer with plain JSON responses.
	DisableStreaming bool

	Health  *HealthChecker
	Metrics *instrumentation.Metrics
}

// HTTPServer serves the MCP streamable-http transport and health checks.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
}

// NewHTTPServer wraps mcpServer in an HTTP server.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if err := validateListenAddr(config.Addr, config.AllowRemote); err != nil {
		return nil, err
	}

	var streamable http.Handler
	if config.DisableStreaming {
		streamable = mcpserver.NewStreamableHTTPServer(mcpServer,
			mcpserver.WithEndpointPath(MCPEndpoint),
			mcpserver.WithDisableStreaming(true),
		)
	} else {
		streamable = mcpserver.NewStreamableHTTPServer(mcpServer,
			mcpserver.WithEndpointPath(MCPEndpoint),
		)
	}

	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, streamable)
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{
		addr: config.Addr,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           HTTPMetricsMiddleware(config.Metrics, mux),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Handler returns the root handler, including middleware.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and blocks until the server stops.
func (s *HTTPServer) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// validateListenAddr rejects non-loopback addresses unless allowRemote is set.
// An empty host (":8080") listens on every interface and counts as remote.
func validateListenAddr(addr string, allowRemote bool) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if allowRemote {
		return nil
	}

	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("refusing to listen on %q: tools act with your Google credential; bind to 127.0.0.1 or pass --allow-remote", addr)
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetricsMiddleware records one http_requests_total sample per request.
// Unknown paths are folded into "other".
func HTTPMetricsMiddleware(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method,
			instrumentation.PathLabel(r.URL.Path, MCPEndpoint, "/healthz", "/readyz"),
			rec.status, time.Since(start))
	})
}
