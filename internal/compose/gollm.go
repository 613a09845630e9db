package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teilomillet/gollm"

	"github.com/teemow/coverletter/internal/config"
	"github.com/teemow/coverletter/internal/logging"
)

type generateFunc func(ctx context.Context, prompt *gollm.Prompt) (string, error)

// GollmComposer writes letter bodies through any gollm provider.
type GollmComposer struct {
	provider string
	model    string
	profile  string
	generate generateFunc
	logger   logging.Logger
}

// NewGollmComposer creates a composer for cfg.Provider and cfg.Model.
// If cfg.APIKey is empty, gollm reads the provider key from the environment.
func NewGollmComposer(cfg config.LLMConfig, profile string, logger logging.Logger) (*GollmComposer, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []gollm.ConfigOption{
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(cfg.Model),
		gollm.SetMaxTokens(maxTokens),
		gollm.SetTemperature(cfg.Temperature),
		gollm.SetMaxRetries(2),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.APIKey != "" {
		opts = append(opts, gollm.SetAPIKey(cfg.APIKey))
	}

	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, &Error{Backend: config.BackendGollm, Err: fmt.Errorf("failed to create LLM for provider %s: %w", cfg.Provider, err)}
	}

	return &GollmComposer{
		provider: cfg.Provider,
		model:    cfg.Model,
		profile:  profile,
		generate: func(ctx context.Context, prompt *gollm.Prompt) (string, error) {
			return llm.Generate(ctx, prompt)
		},
		logger: logger,
	}, nil
}

// Compose implements Composer.
func (c *GollmComposer) Compose(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", &Error{Backend: config.BackendGollm, Err: err}
	}

	data := PromptData{Role: req.Role, Company: req.Company, Profile: c.profile}
	system, err := SystemPrompt(data)
	if err != nil {
		return "", &Error{Backend: config.BackendGollm, Err: err}
	}
	user, err := UserPrompt(data)
	if err != nil {
		return "", &Error{Backend: config.BackendGollm, Err: err}
	}

	prompt := gollm.NewPrompt(user, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))

	start := time.Now()
	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("letter body generation failed",
			"provider", c.provider, "model", c.model, "error", err)
		return "", &Error{Backend: config.BackendGollm, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &Error{Backend: config.BackendGollm, Err: ErrEmptyBody}
	}

	c.logger.Debug("letter body generated",
		"provider", c.provider, "model", c.model,
		"chars", len(text), "duration", time.Since(start).String())
	return text, nil
}
