package server

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/letter"
)

// ErrShutdown is returned for work requested after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// DriveService is the part of the Drive client used by the tools.
type DriveService interface {
	letter.Copier
	letter.Exporter
}

// DocsService is the part of the Docs client used by the tools.
type DocsService interface {
	letter.Filler
}

// Options configures a ServerContext.
type Options struct {
	Drive    DriveService
	Docs     DocsService
	Pipeline *letter.Pipeline
	Template letter.Template

	// Credentials reports the state of the stored Google credential.
	Credentials google.CredentialSource

	// OutputDir is where drive_export_pdf writes relative file names.
	OutputDir string

	// ProfileFile is the candidate profile handed to the composer.
	ProfileFile string

	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	// runSlot holds a token while a pipeline run is active.
	runSlot chan struct{}

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Drive == nil {
		return nil, errors.New("drive client is required")
	}
	if opts.Docs == nil {
		return nil, errors.New("docs client is required")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		opts:    opts,
		runSlot: make(chan struct{}, 1),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Drive returns the Drive client.
func (sc *ServerContext) Drive() DriveService {
	return sc.opts.Drive
}

// Docs returns the Docs client.
func (sc *ServerContext) Docs() DocsService {
	return sc.opts.Docs
}

// Template returns the configured template.
func (sc *ServerContext) Template() letter.Template {
	return sc.opts.Template
}

// OutputDir returns the directory for exported PDFs.
func (sc *ServerContext) OutputDir() string {
	return sc.opts.OutputDir
}

// ProfileFile returns the candidate profile path, or "" when not configured.
func (sc *ServerContext) ProfileFile() string {
	return sc.opts.ProfileFile
}

// Credentials returns the credential source, or nil when not configured.
func (sc *ServerContext) Credentials() google.CredentialSource {
	return sc.opts.Credentials
}

// HasPipeline reports whether full letter generation is available.
func (sc *ServerContext) HasPipeline() bool {
	return sc.opts.Pipeline != nil
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.opts.AuditLogger
}

// Generate runs the letter pipeline. Only one run is active at a time; a
// waiting caller gives up when ctx is done.
func (sc *ServerContext) Generate(ctx context.Context, req letter.Request) (*letter.Confirmation, error) {
	if sc.opts.Pipeline == nil {
		return nil, errors.New("letter generation is not configured")
	}
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}

	select {
	case sc.runSlot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-sc.runSlot }()

	return sc.opts.Pipeline.Generate(ctx, req)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

var (
	_ DriveService = (*drive.Client)(nil)
	_ DocsService  = (*docs.Client)(nil)
)
