package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/coverletter/internal/compose"
	"github.com/teemow/coverletter/internal/config"
	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/letter"
	"github.com/teemow/coverletter/internal/logging"
)

// configFlags holds command-line overrides for config.Config. Values only
// replace the environment configuration when the flag was set explicitly.
type configFlags struct {
	templateID string
	outputDir  string
	profile    string
	tokenFile  string
	secretFile string
	backend    string
	provider   string
	model      string
	timeout    time.Duration
	cleanup    bool
	verify     bool
	sanitize   bool
}

// registerAuth adds only the flags that affect acquiring a Google credential.
func (f *configFlags) registerAuth(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tokenFile, "token-file", "", "Where the Google credential is stored. Can also use COVERLETTER_TOKEN_FILE env var.")
	cmd.Flags().StringVar(&f.secretFile, "credentials-file", "", "OAuth client secret JSON (default: credentials.json). Can also use COVERLETTER_CREDENTIALS_FILE env var.")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Upper bound for a whole run, 0 disables it (default: 5m). Can also use COVERLETTER_TIMEOUT env var.")
}

func (f *configFlags) register(cmd *cobra.Command) {
	f.registerAuth(cmd)
	cmd.Flags().StringVar(&f.templateID, "template", "", "Template document ID or URL. Can also use COVERLETTER_TEMPLATE_ID env var.")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for exported PDFs (default: current directory). Can also use COVERLETTER_OUTPUT_DIR env var.")
	cmd.Flags().StringVar(&f.profile, "profile", "", "Candidate profile text file (default: profile.txt). Can also use COVERLETTER_PROFILE_FILE env var.")
	cmd.Flags().StringVar(&f.backend, "llm-backend", "", "Body composer backend: gollm or openai. Can also use COVERLETTER_LLM_BACKEND env var.")
	cmd.Flags().StringVar(&f.provider, "llm-provider", "", "gollm provider (openai, anthropic, groq, ollama, ...). Can also use COVERLETTER_LLM_PROVIDER env var.")
	cmd.Flags().StringVar(&f.model, "llm-model", "", "Model used to write the letter body. Can also use COVERLETTER_LLM_MODEL env var.")
	cmd.Flags().BoolVar(&f.cleanup, "cleanup-on-failure", false, "Delete the copied document when a later step fails. Can also use COVERLETTER_CLEANUP_ON_FAILURE env var.")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "Fail the run when template placeholders remain after filling. Can also use COVERLETTER_VERIFY_PLACEHOLDERS env var.")
	cmd.Flags().BoolVar(&f.sanitize, "sanitize-filenames", false, "Replace path-unsafe characters in the title and PDF name. Can also use COVERLETTER_SANITIZE_FILENAMES env var.")
}

// load returns the environment configuration with explicit flags applied.
func (f *configFlags) load(cmd *cobra.Command) config.Config {
	cfg := config.DefaultConfig()
	changed := cmd.Flags().Changed

	if changed("template") {
		cfg.TemplateID = f.templateID
	}
	if changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if changed("profile") {
		cfg.ProfileFile = f.profile
	}
	if changed("token-file") {
		cfg.TokenFile = f.tokenFile
	}
	if changed("credentials-file") {
		cfg.CredentialsFile = f.secretFile
	}
	if changed("llm-backend") {
		cfg.LLM.Backend = f.backend
	}
	if changed("llm-provider") {
		cfg.LLM.Provider = f.provider
	}
	if changed("llm-model") {
		cfg.LLM.Model = f.model
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("cleanup-on-failure") {
		cfg.CleanupOnFailure = f.cleanup
	}
	if changed("verify") {
		cfg.VerifyPlaceholders = f.verify
	}
	if changed("sanitize-filenames") {
		cfg.SanitizeFilenames = f.sanitize
	}
	return cfg
}

// observability bundles the optional instrumentation handed to components.
// Every field may be nil.
type observability struct {
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// startInstrumentation creates the OpenTelemetry provider. The returned
// shutdown function flushes exporters and never blocks longer than five seconds.
func startInstrumentation(ctx context.Context, instrConfig instrumentation.Config, logger *slog.Logger) (*instrumentation.Provider, observability, func(), error) {
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, observability{}, nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	var obs observability
	if provider.Enabled() {
		obs.metrics = provider.Metrics()
		obs.audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}
	return provider, obs, shutdown, nil
}

// services are the Google clients shared by the CLI and the MCP server.
type services struct {
	store       *google.FileStore
	credentials *google.Provider
	drive       *drive.Client
	docs        *docs.Client
	template    letter.Template
}

// newServices builds the Google clients for cfg. With interactive set, a
// missing or unusable credential triggers the browser login.
func newServices(cfg config.Config, interactive bool, logger *slog.Logger, obs observability) (*services, error) {
	template, err := letter.NewTemplate(cfg.TemplateID, cfg)
	if err != nil {
		return nil, err
	}

	store := google.NewFileStore(cfg.TokenFile)
	provider := newCredentialProvider(cfg, store, interactive, logger, obs)

	return &services{
		store:       store,
		credentials: provider,
		drive:       drive.NewClient(provider, drive.WithLogger(logger), drive.WithMetrics(obs.metrics)),
		docs:        docs.NewClient(provider, docs.WithLogger(logger), docs.WithMetrics(obs.metrics)),
		template:    template,
	}, nil
}

func newCredentialProvider(cfg config.Config, store google.CredentialStore, interactive bool, logger *slog.Logger, obs observability) *google.Provider {
	pc := google.ProviderConfig{
		Store:            store,
		ClientSecretFile: cfg.CredentialsFile,
		Interactive:      interactive,
		Logger:           logging.NewSlogAdapter(logging.WithService(logger, "oauth")),
	}
	if obs.metrics != nil {
		pc.Recorder = obs.metrics
	}
	return google.NewProvider(pc)
}

// newPipeline wires a letter pipeline on top of s. confineOutput keeps
// derived PDF names inside cfg.OutputDir.
func (s *services) newPipeline(cfg config.Config, logger *slog.Logger, obs observability, confineOutput bool) (*letter.Pipeline, error) {
	composer, err := compose.New(cfg.LLM, cfg.ProfileFile, logging.NewSlogAdapter(logging.WithService(logger, "compose")))
	if err != nil {
		return nil, err
	}

	pc := letter.PipelineConfig{
		Template:          s.template,
		Composer:          composer,
		Copier:            s.drive,
		Filler:            s.docs,
		Exporter:          s.drive,
		OutputDir:         cfg.OutputDir,
		SanitizeFilenames: cfg.SanitizeFilenames,
		ConfineOutput:     confineOutput,
		Backend:           cfg.LLM.Backend,
		Logger:            logger,
		Metrics:           obs.metrics,
		Audit:             obs.audit,
	}
	if cfg.VerifyPlaceholders {
		pc.Verifier = s.docs
	}
	if cfg.CleanupOnFailure {
		pc.Remover = s.drive
	}
	return letter.NewPipeline(pc)
}
