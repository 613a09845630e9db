package instrumentation

import (
	"context"
	"log/slog"
	"time"
)

// Audit record kinds.
const (
	AuditKindRun  = "run"
	AuditKindTool = "tool"
)

// Invocation captures one pipeline run or one MCP tool call for audit logging.
//
// Company and role are only logged when the audit logger is configured with
// IncludeRequest; the document id is always logged so orphaned copies can be
// traced back to a run.
type Invocation struct {
	Kind string
	Name string

	RunID      string
	DocumentID string
	FailedStep string

	Company string
	Role    string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	ErrorKind string
	Error     string

	TraceID string
	SpanID  string
}

// NewRunInvocation starts an audit record for a pipeline run.
func NewRunInvocation(runID string) *Invocation {
	return &Invocation{
		Kind:      AuditKindRun,
		Name:      "generate",
		RunID:     runID,
		StartTime: time.Now(),
	}
}

// NewToolInvocation starts an audit record for an MCP tool call.
func NewToolInvocation(tool string) *Invocation {
	return &Invocation{
		Kind:      AuditKindTool,
		Name:      tool,
		StartTime: time.Now(),
	}
}

// WithRequest records the company and role the letter was requested for.
func (inv *Invocation) WithRequest(company, role string) *Invocation {
	inv.Company = company
	inv.Role = role
	return inv
}

// WithDocument records the id of the document created or targeted.
func (inv *Invocation) WithDocument(id string) *Invocation {
	inv.DocumentID = id
	return inv
}

// WithFailedStep records the pipeline step that failed.
func (inv *Invocation) WithFailedStep(step string) *Invocation {
	inv.FailedStep = step
	return inv
}

// WithSpanContext extracts trace context from the current span.
func (inv *Invocation) WithSpanContext(ctx context.Context) *Invocation {
	inv.TraceID = GetTraceID(ctx)
	inv.SpanID = GetSpanID(ctx)
	return inv
}

// Complete marks the invocation as finished and calculates its duration.
func (inv *Invocation) Complete(err error) *Invocation {
	inv.Duration = time.Since(inv.StartTime)
	inv.Success = err == nil
	if err != nil {
		inv.Error = err.Error()
		inv.ErrorKind = ErrorKind(err)
	}
	return inv
}

// Status returns "success" or "error" based on the Success field.
func (inv *Invocation) Status() string {
	if inv.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the record. Request details are
// included only when includeRequest is set.
func (inv *Invocation) LogAttrs(includeRequest bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("kind", inv.Kind),
		slog.String("name", inv.Name),
		slog.String("status", inv.Status()),
		slog.Duration("duration", inv.Duration),
	}

	if inv.RunID != "" {
		attrs = append(attrs, slog.String("run_id", inv.RunID))
	}
	if inv.DocumentID != "" {
		attrs = append(attrs, slog.String("document_id", inv.DocumentID))
	}
	if inv.FailedStep != "" {
		attrs = append(attrs, slog.String("failed_step", inv.FailedStep))
	}
	if includeRequest {
		if inv.Company != "" {
			attrs = append(attrs, slog.String("company", inv.Company))
		}
		if inv.Role != "" {
			attrs = append(attrs, slog.String("role", inv.Role))
		}
	}
	if inv.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", inv.TraceID))
	}
	if inv.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", inv.SpanID))
	}
	if inv.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", inv.ErrorKind))
	}
	if inv.Error != "" {
		attrs = append(attrs, slog.String("error", inv.Error))
	}

	return attrs
}

// AuditLogger writes one structured record per run or tool invocation.
// A nil *AuditLogger discards records.
type AuditLogger struct {
	logger         *slog.Logger
	includeRequest bool
	enabled        bool
}

// NewAuditLogger creates an enabled AuditLogger that omits request details.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:         logger.With("component", "audit"),
		includeRequest: config.IncludeRequest,
		enabled:        config.Enabled,
	}
}

// Log writes inv. Successful records are logged at info, failures at warn.
func (al *AuditLogger) Log(inv *Invocation) {
	if al == nil || !al.enabled || inv == nil {
		return
	}

	attrs := inv.LogAttrs(al.includeRequest)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	msg := inv.Kind + "_completed"
	if inv.Success {
		al.logger.Info(msg, args...)
	} else {
		al.logger.Warn(inv.Kind+"_failed", args...)
	}
}
