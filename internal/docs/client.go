package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/logging"
)

// Client performs Docs operations on behalf of the user.
type Client struct {
	creds   google.CredentialSource
	opts    []option.ClientOption
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithClientOptions appends Google API client options.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.opts = append(c.opts, opts...)
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records each Docs call in m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Docs client that authorizes every call with creds.
func NewClient(creds google.CredentialSource, opts ...Option) *Client {
	c := &Client{
		creds:  creds,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithService(c.logger, instrumentation.ServiceDocs)
	return c
}

func (c *Client) service(ctx context.Context) (*docs.Service, error) {
	if c.creds == nil {
		return nil, &google.AuthError{Reason: "no credential source configured"}
	}
	cred, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(google.NewHTTPClient(ctx, cred))}, c.opts...)
	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs service: %w", err)
	}
	return svc, nil
}

func (c *Client) observe(ctx context.Context, operation, documentID string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDocs, operation,
		instrumentation.NewSpanAttributeBuilder().WithDocument(documentID).Build()...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceDocs, operation,
		instrumentation.StatusFromError(err), time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	return err
}

// FillPlaceholders replaces every occurrence of each token with its value in
// a single batch update. Replacements are applied in the order given, with
// case-sensitive matching; values are inserted verbatim.
func (c *Client) FillPlaceholders(ctx context.Context, documentID string, replacements []Replacement) (*FillResult, error) {
	if documentID == "" {
		return nil, &OperationError{Op: OpFill, Err: errors.New("document id is required")}
	}
	if len(replacements) == 0 {
		return nil, &OperationError{Op: OpFill, ResourceID: documentID, Err: errors.New("no replacements given")}
	}

	requests := make([]*docs.Request, 0, len(replacements))
	for _, r := range replacements {
		if r.Token == "" {
			return nil, &OperationError{Op: OpFill, ResourceID: documentID, Err: errors.New("replacement token must not be empty")}
		}
		requests = append(requests, &docs.Request{
			ReplaceAllText: &docs.ReplaceAllTextRequest{
				ContainsText: &docs.SubstringMatchCriteria{
					Text:      r.Token,
					MatchCase: true,
				},
				ReplaceText: r.Value,
				// An empty value is a legitimate replacement and must be sent.
				ForceSendFields: []string{"ReplaceText"},
			},
		})
	}

	result := &FillResult{DocumentID: documentID, PerToken: make([]int64, len(replacements))}
	err := c.observe(ctx, instrumentation.OperationBatchUpdate, documentID, func(ctx context.Context) error {
		svc, err := c.service(ctx)
		if err != nil {
			return err
		}

		resp, err := svc.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{
			Requests: requests,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}

		for i, reply := range resp.Replies {
			if i >= len(result.PerToken) || reply == nil || reply.ReplaceAllText == nil {
				continue
			}
			result.PerToken[i] = reply.ReplaceAllText.OccurrencesChanged
			result.Occurrences += reply.ReplaceAllText.OccurrencesChanged
		}
		return nil
	})
	if err != nil {
		c.logger.Error("placeholder fill failed", logging.DocumentID(documentID), logging.Err(err))
		return nil, newOperationError(OpFill, documentID, err)
	}

	c.logger.Info("placeholders filled",
		logging.DocumentID(documentID),
		slog.Int("requests", len(requests)),
		slog.Int64("occurrences", result.Occurrences))
	return result, nil
}

// DocumentText returns the plain text of a document, including every tab,
// header, footer and footnote.
func (c *Client) DocumentText(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", &OperationError{Op: OpRead, Err: errors.New("document id is required")}
	}

	var text string
	err := c.observe(ctx, instrumentation.OperationGet, documentID, func(ctx context.Context) error {
		svc, err := c.service(ctx)
		if err != nil {
			return err
		}

		doc, err := svc.Documents.Get(documentID).IncludeTabsContent(true).Context(ctx).Do()
		if err != nil {
			return err
		}
		text = PlainText(doc)
		return nil
	})
	if err != nil {
		return "", newOperationError(OpRead, documentID, err)
	}
	return text, nil
}

// RemainingTokens reads the document back and returns the tokens still present.
func (c *Client) RemainingTokens(ctx context.Context, documentID string, tokens []string) ([]string, error) {
	text, err := c.DocumentText(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return FindTokens(text, tokens), nil
}
