package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/natefinch/atomic"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/logging"
)

// exportChunkSize bounds each read of the exported PDF body.
const exportChunkSize = 256 * 1024

// Client performs Drive operations on behalf of the user.
type Client struct {
	creds   google.CredentialSource
	opts    []option.ClientOption
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithClientOptions appends Google API client options, e.g. option.WithEndpoint in tests.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.opts = append(c.opts, opts...)
	}
}

// WithLogger sets the logger used for progress and failure messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records each Drive call in m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Drive client that authorizes every call with creds.
func NewClient(creds google.CredentialSource, opts ...Option) *Client {
	c := &Client{
		creds:  creds,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithService(c.logger, instrumentation.ServiceDrive)
	return c
}

// service builds a Drive service from a freshly obtained credential.
func (c *Client) service(ctx context.Context) (*drive.Service, error) {
	if c.creds == nil {
		return nil, &google.AuthError{Reason: "no credential source configured"}
	}
	cred, err := c.creds.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(google.NewHTTPClient(ctx, cred))}, c.opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return svc, nil
}

// observe wraps one Drive API call with a span and metrics.
func (c *Client) observe(ctx context.Context, operation, resourceID string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, operation,
		instrumentation.NewSpanAttributeBuilder().WithDocument(resourceID).Build()...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceDrive, operation,
		instrumentation.StatusFromError(err), time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	return err
}

// CopyTemplate copies the template document into a new file named title.
// The template itself is never modified.
func (c *Client) CopyTemplate(ctx context.Context, templateID, title string) (*FileInfo, error) {
	if templateID == "" {
		return nil, &OperationError{Op: OpCopy, Err: errors.New("template id is required")}
	}
	if title == "" {
		return nil, &OperationError{Op: OpCopy, ResourceID: templateID, Err: errors.New("title is required")}
	}

	var info *FileInfo
	err := c.observe(ctx, instrumentation.OperationCopy, templateID, func(ctx context.Context) error {
		svc, err := c.service(ctx)
		if err != nil {
			return err
		}

		copied, err := svc.Files.Copy(templateID, &drive.File{Name: title}).
			SupportsAllDrives(true).
			Fields("id, name, webViewLink").
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if copied.Id == "" {
			return errors.New("copy response has no file id")
		}

		info = &FileInfo{ID: copied.Id, Name: copied.Name, WebViewLink: copied.WebViewLink}
		return nil
	})
	if err != nil {
		c.logger.Error("template copy failed", logging.DocumentID(templateID), logging.Err(err))
		return nil, newOperationError(OpCopy, templateID, err)
	}

	c.logger.Info("template copied",
		logging.DocumentID(info.ID),
		slog.String("title", info.Name),
		slog.String("template_id", templateID))
	return info, nil
}

// ExportPDF exports documentID as PDF and writes it to outputPath,
// replacing any existing file. Nothing is written when the export fails.
func (c *Client) ExportPDF(ctx context.Context, documentID, outputPath string) (*ExportResult, error) {
	if documentID == "" {
		return nil, &OperationError{Op: OpExport, Err: errors.New("document id is required")}
	}
	if outputPath == "" {
		return nil, &OperationError{Op: OpExport, ResourceID: documentID, Err: errors.New("output path is required")}
	}

	var content []byte
	err := c.observe(ctx, instrumentation.OperationExport, documentID, func(ctx context.Context) error {
		svc, err := c.service(ctx)
		if err != nil {
			return err
		}

		resp, err := svc.Files.Export(documentID, PDFMimeType).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		content, err = c.readChunked(documentID, resp.Body, resp.ContentLength)
		return err
	})
	if err != nil {
		c.logger.Error("PDF export failed", logging.DocumentID(documentID), logging.Err(err))
		return nil, newOperationError(OpExport, documentID, err)
	}

	if err := atomic.WriteFile(outputPath, bytes.NewReader(content)); err != nil {
		return nil, &OperationError{Op: OpExport, ResourceID: documentID, Err: fmt.Errorf("failed to write %s: %w", outputPath, err)}
	}

	c.logger.Info("PDF exported",
		logging.DocumentID(documentID),
		logging.Path(outputPath),
		slog.Int("bytes", len(content)))
	return &ExportResult{DocumentID: documentID, Path: outputPath, Bytes: int64(len(content))}, nil
}

// readChunked reads body in bounded chunks, logging progress at debug level.
// total is the announced content length, or -1 when unknown.
func (c *Client) readChunked(documentID string, body io.Reader, total int64) ([]byte, error) {
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, exportChunkSize)
	for {
		n, err := io.ReadFull(body, chunk)
		buf.Write(chunk[:n])
		if n > 0 {
			c.logger.Debug("download progress",
				logging.DocumentID(documentID),
				slog.Int("received", buf.Len()),
				slog.Int64("total", total))
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if total >= 0 && int64(buf.Len()) != total {
				return nil, fmt.Errorf("download truncated: received %d of %d bytes", buf.Len(), total)
			}
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("download interrupted after %d bytes: %w", buf.Len(), err)
		}
	}
}

// DeleteFile removes a file created by a failed run.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return &OperationError{Op: OpDelete, Err: errors.New("file id is required")}
	}

	err := c.observe(ctx, instrumentation.OperationDelete, fileID, func(ctx context.Context) error {
		svc, err := c.service(ctx)
		if err != nil {
			return err
		}
		return svc.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do()
	})
	if err != nil {
		return newOperationError(OpDelete, fileID, err)
	}

	c.logger.Info("file deleted", logging.DocumentID(fileID))
	return nil
}
