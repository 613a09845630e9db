package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/server"
)

// resultError stands in for a handler that returned an error result instead
// of a Go error.
type resultError struct{}

func (resultError) Error() string { return "tool returned an error result" }

func (resultError) Kind() string { return "tool_error" }

// InstrumentedToolHandler wraps a tool handler with a span, metrics and an
// audit record.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = resultError{}
		}

		status := instrumentation.StatusFromError(failure)
		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		sc.AuditLogger().Log(invocation.Complete(failure))

		if failure != nil {
			instrumentation.SetSpanError(span, failure)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		return result, err
	}
}
