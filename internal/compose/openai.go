package compose

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	oaoption "github.com/openai/openai-go/v2/option"

	"github.com/teemow/coverletter/internal/config"
	"github.com/teemow/coverletter/internal/logging"
)

// OpenAIComposer writes letter bodies with the chat completions API.
type OpenAIComposer struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	profile     string
	logger      logging.Logger
}

// NewOpenAIComposer creates a composer. cfg.BaseURL selects an
// OpenAI-compatible endpoint; extra request options are appended last.
func NewOpenAIComposer(cfg config.LLMConfig, profile string, logger logging.Logger, opts ...oaoption.RequestOption) *OpenAIComposer {
	var reqOpts []oaoption.RequestOption
	if cfg.APIKey != "" {
		reqOpts = append(reqOpts, oaoption.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, oaoption.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &OpenAIComposer{
		client:      openai.NewClient(reqOpts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		profile:     profile,
		logger:      logger,
	}
}

// Compose implements Composer.
func (c *OpenAIComposer) Compose(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", &Error{Backend: config.BackendOpenAI, Err: err}
	}

	data := PromptData{Role: req.Role, Company: req.Company, Profile: c.profile}
	system, err := SystemPrompt(data)
	if err != nil {
		return "", &Error{Backend: config.BackendOpenAI, Err: err}
	}
	user, err := UserPrompt(data)
	if err != nil {
		return "", &Error{Backend: config.BackendOpenAI, Err: err}
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Warn("letter body generation failed", "model", c.model, "error", err)
		return "", &Error{Backend: config.BackendOpenAI, Err: err}
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		return "", &Error{Backend: config.BackendOpenAI, Err: ErrEmptyBody}
	}

	c.logger.Debug("letter body generated",
		"model", c.model, "chars", len(text),
		"total_tokens", resp.Usage.TotalTokens,
		"duration", time.Since(start).String())
	return text, nil
}
