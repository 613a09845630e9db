// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for coverletter.
//
// # Metrics
//
// Google API:
//   - google_api_operations_total: Google API calls by service, operation, status
//   - google_api_operation_duration_seconds: Google API call durations
//
// OAuth:
//   - oauth_auth_total: credential acquisitions by result
//   - oauth_token_refresh_total: token refresh attempts by result
//
// Pipeline:
//   - pipeline_runs_total: cover letter runs by composer backend, status and failed step
//   - pipeline_step_duration_seconds: duration of each pipeline step
//
// MCP server:
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds: tool calls by tool and status
//   - http_requests_total / http_request_duration_seconds: streamable-http requests
//
// # Tracing
//
// Spans are created per pipeline step (pipeline.<step>), per Google API call
// (google.<service>.<operation>) and per MCP tool call (tool.<name>). Outgoing
// Google HTTP requests are additionally traced by otelhttp.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: enable/disable (CLI default: false, serve default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_REQUEST: audit log controls
//
// A nil or disabled *Metrics records nothing, so components can be built
// without instrumentation in tests.
package instrumentation
