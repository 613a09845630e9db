package letter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/coverletter/internal/compose"
	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/logging"
)

const cleanupTimeout = 30 * time.Second

// Copier creates the document from the template.
type Copier interface {
	CopyTemplate(ctx context.Context, templateID, title string) (*drive.FileInfo, error)
}

// Filler substitutes the placeholder tokens.
type Filler interface {
	FillPlaceholders(ctx context.Context, documentID string, replacements []docs.Replacement) (*docs.FillResult, error)
}

// Verifier reports tokens still present after filling.
type Verifier interface {
	RemainingTokens(ctx context.Context, documentID string, tokens []string) ([]string, error)
}

// Exporter writes the document as a local PDF.
type Exporter interface {
	ExportPDF(ctx context.Context, documentID, outputPath string) (*drive.ExportResult, error)
}

// Remover deletes an orphaned document.
type Remover interface {
	DeleteFile(ctx context.Context, fileID string) error
}

// PipelineConfig wires the steps of a Pipeline.
type PipelineConfig struct {
	Template Template

	Composer compose.Composer
	Copier   Copier
	Filler   Filler
	Exporter Exporter

	// Verifier enables the verify step when set.
	Verifier Verifier

	// Remover enables deletion of the orphaned copy when a later step fails.
	Remover Remover

	// OutputDir is where PDFs are written; empty means the working directory.
	OutputDir string

	// SanitizeFilenames makes the title and PDF name safe for file systems.
	SanitizeFilenames bool

	// ConfineOutput rejects requests whose PDF name would resolve outside
	// OutputDir. Set it when requests come from untrusted callers.
	ConfineOutput bool

	// Backend labels pipeline metrics with the composer backend.
	Backend string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// Pipeline generates cover letters. It is safe for sequential use; callers
// that share a Pipeline between goroutines must serialize Generate.
type Pipeline struct {
	cfg    PipelineConfig
	logger *slog.Logger
}

// NewPipeline validates cfg and returns a Pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	switch {
	case cfg.Template.ID == "":
		return nil, errors.New("template id is required")
	case cfg.Composer == nil:
		return nil, errors.New("composer is required")
	case cfg.Copier == nil:
		return nil, errors.New("copier is required")
	case cfg.Filler == nil:
		return nil, errors.New("filler is required")
	case cfg.Exporter == nil:
		return nil, errors.New("exporter is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logging.WithOperation(logger, "letter.generate"),
	}, nil
}

// Names derives the document title and the PDF path for req.
func (p *Pipeline) Names(req Request) (title, pdfPath string) {
	company, role := p.nameParts(req)
	title = Title(company, role)
	pdfPath = Filename(company)
	if p.cfg.OutputDir != "" && p.cfg.OutputDir != "." {
		pdfPath = filepath.Join(p.cfg.OutputDir, pdfPath)
	}
	return title, pdfPath
}

func (p *Pipeline) nameParts(req Request) (company, role string) {
	if p.cfg.SanitizeFilenames {
		return Sanitize(req.Company), Sanitize(req.Role)
	}
	return req.Company, req.Role
}

// prepareOutput runs before any step so a bad destination fails the run
// before Drive is touched.
func (p *Pipeline) prepareOutput(req Request, pdfPath string) error {
	if p.cfg.ConfineOutput {
		company, _ := p.nameParts(req)
		if name := Filename(company); !filepath.IsLocal(name) {
			return fmt.Errorf("%w: %q", ErrUnsafeFilename, name)
		}
	}
	dir := filepath.Dir(pdfPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output directory %s is not usable: %w", dir, err)
	}
	return nil
}

// Generate runs every step for req and returns the confirmation of the
// exported PDF. The first failing step halts the run with a *StepError.
func (p *Pipeline) Generate(ctx context.Context, req Request) (conf *Confirmation, err error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx, span := instrumentation.StartSpan(ctx, "pipeline.generate",
		instrumentation.NewSpanAttributeBuilder().WithRunID(runID).WithBackend(p.cfg.Backend).Build()...)
	defer span.End()

	logger := logging.WithRunID(p.logger, runID)
	inv := instrumentation.NewRunInvocation(runID).WithRequest(req.Company, req.Role)
	doc := &Document{Company: req.Company, Role: req.Role}

	defer func() {
		failedStep := ""
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			failedStep = stepErr.Step
			inv.WithFailedStep(failedStep)
		}
		inv.WithDocument(doc.ID).WithSpanContext(ctx).Complete(err)
		p.cfg.Audit.Log(inv)
		p.cfg.Metrics.RecordPipelineRun(ctx, p.cfg.Backend, instrumentation.StatusFromError(err), failedStep)

		if err != nil {
			instrumentation.SetSpanError(span, err)
			logger.Error("cover letter generation failed", slog.String("failed_step", failedStep), logging.Err(err))
		} else {
			instrumentation.SetSpanSuccess(span)
		}
	}()

	logger.Info("generating cover letter",
		slog.String("company", req.Company),
		slog.String("role", req.Role))

	title, pdfPath := p.Names(req)
	doc.Title = title
	if err := p.prepareOutput(req, pdfPath); err != nil {
		return nil, err
	}

	if err := p.step(ctx, logger, StepCompose, "", func(ctx context.Context) error {
		body, err := p.cfg.Composer.Compose(ctx, compose.Request{Role: req.Role, Company: req.Company})
		if err != nil {
			return err
		}
		doc.Body = NormalizeBody(body)
		if doc.Body == "" {
			return compose.ErrEmptyBody
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.step(ctx, logger, StepCopy, "", func(ctx context.Context) error {
		info, err := p.cfg.Copier.CopyTemplate(ctx, p.cfg.Template.ID, title)
		if err != nil {
			return err
		}
		doc.ID = info.ID
		doc.WebViewLink = info.WebViewLink
		return nil
	}); err != nil {
		return nil, err
	}
	logger = logger.With(logging.DocumentID(doc.ID))

	if err := p.step(ctx, logger, StepFill, doc.ID, func(ctx context.Context) error {
		res, err := p.cfg.Filler.FillPlaceholders(ctx, doc.ID, p.replacements(doc))
		if err != nil {
			return err
		}
		instrumentation.AddSpanEvent(ctx, "placeholders.replaced",
			attribute.Int64("occurrences", res.Occurrences))
		logger.Debug("placeholders replaced", slog.Int64("occurrences", res.Occurrences))
		return nil
	}); err != nil {
		return nil, p.cleanup(ctx, logger, err)
	}

	if p.cfg.Verifier != nil {
		if err := p.step(ctx, logger, StepVerify, doc.ID, func(ctx context.Context) error {
			left, err := p.cfg.Verifier.RemainingTokens(ctx, doc.ID, p.cfg.Template.Tokens())
			if err != nil {
				return err
			}
			if len(left) > 0 {
				return remainingError(left)
			}
			return nil
		}); err != nil {
			return nil, p.cleanup(ctx, logger, err)
		}
	}

	var exported *drive.ExportResult
	if err := p.step(ctx, logger, StepExport, doc.ID, func(ctx context.Context) error {
		var err error
		exported, err = p.cfg.Exporter.ExportPDF(ctx, doc.ID, pdfPath)
		return err
	}); err != nil {
		return nil, p.cleanup(ctx, logger, err)
	}

	conf = &Confirmation{
		RunID:       runID,
		DocumentID:  doc.ID,
		Title:       doc.Title,
		WebViewLink: doc.WebViewLink,
		PDFPath:     exported.Path,
		Bytes:       exported.Bytes,
	}
	logger.Info("cover letter generated",
		logging.Path(conf.PDFPath),
		slog.Int64("bytes", conf.Bytes))
	return conf, nil
}

func (p *Pipeline) replacements(doc *Document) []docs.Replacement {
	t := p.cfg.Template
	return []docs.Replacement{
		{Token: t.CompanyToken, Value: doc.Company},
		{Token: t.RoleToken, Value: doc.Role},
		{Token: t.BodyToken, Value: doc.Body},
	}
}

// step runs fn inside a step span and wraps its error in a *StepError.
func (p *Pipeline) step(ctx context.Context, logger *slog.Logger, name, documentID string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartStepSpan(ctx, name,
		instrumentation.NewSpanAttributeBuilder().WithDocument(documentID).Build()...)
	defer span.End()

	logger.Debug("step started", logging.Step(name))
	start := time.Now()

	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	duration := time.Since(start)
	p.cfg.Metrics.RecordPipelineStep(ctx, name, instrumentation.StatusFromError(err), duration)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return &StepError{Step: name, DocumentID: documentID, Err: err}
	}

	instrumentation.SetSpanSuccess(span)
	logger.Debug("step completed", logging.Step(name), slog.Duration("duration", duration))
	return nil
}

// cleanup deletes the orphaned copy when a Remover is configured. A failed
// deletion is joined to the step error.
func (p *Pipeline) cleanup(ctx context.Context, logger *slog.Logger, err error) error {
	var stepErr *StepError
	if p.cfg.Remover == nil || !errors.As(err, &stepErr) || !stepErr.Orphaned() {
		if stepErr != nil && stepErr.Orphaned() {
			logger.Warn("partially filled document left in Drive", logging.DocumentID(stepErr.DocumentID))
		}
		return err
	}

	// The run context may already be cancelled or past its deadline.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if derr := p.cfg.Remover.DeleteFile(cleanupCtx, stepErr.DocumentID); derr != nil {
		logger.Error("failed to delete orphaned document", logging.DocumentID(stepErr.DocumentID), logging.Err(derr))
		return errors.Join(err, fmt.Errorf("cleanup of document %s failed: %w", stepErr.DocumentID, derr))
	}

	stepErr.CleanedUp = true
	logger.Info("deleted orphaned document", logging.DocumentID(stepErr.DocumentID))
	return err
}
