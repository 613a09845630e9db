package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/letter"
	"github.com/teemow/coverletter/internal/logging"
	"github.com/teemow/coverletter/internal/resources"
	"github.com/teemow/coverletter/internal/server"
	"github.com/teemow/coverletter/internal/tools/google_tools"
	"github.com/teemow/coverletter/internal/tools/letter_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	defaultHTTPAddr = "127.0.0.1:8080"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., "127.0.0.1:9090")
	Addr string
}

// HTTPConfig holds the streamable-http transport settings
type HTTPConfig struct {
	Addr             string
	AllowRemote      bool
	DisableStreaming bool
}

func newServeCmd() *cobra.Command {
	var (
		debugMode        bool
		transport        string
		httpAddr         string
		allowRemote      bool
		disableStreaming bool
		metricsEnabled   bool
		metricsAddr      string
		flags            configFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server to provide cover letter
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

The server uses the stored Google credential and never opens a browser.
Run 'coverletter login' first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
				metricsEnabled = false
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}

			return runServe(cmd, transport, debugMode, &flags,
				HTTPConfig{Addr: httpAddr, AllowRemote: allowRemote, DisableStreaming: disableStreaming},
				MetricsConfig{Enabled: metricsEnabled, Addr: metricsAddr})
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", defaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "WARNING: Allow the HTTP server to listen on non-loopback addresses. Anyone who can reach it acts with your Google credential.")
	cmd.Flags().BoolVar(&disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	flags.register(cmd)

	return cmd
}

func runServe(cmd *cobra.Command, transport string, debugMode bool, flags *configFlags, httpConfig HTTPConfig, metricsConfig MetricsConfig) error {
	if transport != transportStdio && transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}

	// stdout carries the stdio protocol; logs always go to stderr.
	logger := logging.NewLogger(os.Stderr, debugMode)
	slog.SetDefault(logger)

	cfg := flags.load(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, obs, shutdownInstrumentation, err := startInstrumentation(shutdownCtx, instrumentation.DefaultServerConfig(), logger)
	if err != nil {
		return err
	}
	defer shutdownInstrumentation()

	// Start metrics server if enabled and not in stdio mode
	if transport != transportStdio && metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	svc, err := newServices(cfg, false, logger, obs)
	if err != nil {
		return err
	}

	var pipeline *letter.Pipeline
	if pipeline, err = svc.newPipeline(cfg, logger, obs, true); err != nil {
		logger.Warn("letter generation disabled; only the step tools are available", logging.Err(err))
		pipeline = nil
	}

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Drive:       svc.drive,
		Docs:        svc.docs,
		Pipeline:    pipeline,
		Template:    svc.template,
		Credentials: svc.credentials,
		OutputDir:   cfg.OutputDir,
		ProfileFile: cfg.ProfileFile,
		Metrics:     obs.metrics,
		AuditLogger: obs.audit,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	// Note: mcp.Implementation has Title field but WithTitle() ServerOption not available in v0.43.0
	mcpSrv := mcpserver.NewMCPServer("coverletter", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, httpConfig, obs, logger)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Cover letter tools",
			register: func() error {
				return letter_tools.RegisterLetterTools(mcpSrv, ctx)
			},
		},
		{
			name: "Google tools",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, ctx)
			},
		},
		{
			name: "Letter resources",
			register: func() error {
				return resources.RegisterLetterResources(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, httpConfig HTTPConfig, obs observability, logger *slog.Logger) error {
	healthChecker := server.NewHealthChecker(serverContext)
	healthChecker.AddCheck("google_credential", func(ctx context.Context) error {
		_, err := serverContext.Credentials().Credentials(ctx)
		return err
	})

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             httpConfig.Addr,
		AllowRemote:      httpConfig.AllowRemote,
		DisableStreaming: httpConfig.DisableStreaming,
		Health:           healthChecker,
		Metrics:          obs.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	logger.Info("starting MCP server",
		"transport", transportStreamableHTTP,
		"addr", httpServer.Addr(),
		"endpoint", server.MCPEndpoint,
		"letter_generation", serverContext.HasPipeline())

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
