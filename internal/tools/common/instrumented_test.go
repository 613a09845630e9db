package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/instrumentation"
	"github.com/teemow/coverletter/internal/server"
)

type nopServices struct{}

func (nopServices) CopyTemplate(ctx context.Context, templateID, title string) (*drive.FileInfo, error) {
	return &drive.FileInfo{ID: "copy", Name: title}, nil
}

func (nopServices) ExportPDF(ctx context.Context, documentID, outputPath string) (*drive.ExportResult, error) {
	return &drive.ExportResult{DocumentID: documentID, Path: outputPath}, nil
}

func (nopServices) FillPlaceholders(ctx context.Context, documentID string, replacements []docs.Replacement) (*docs.FillResult, error) {
	return &docs.FillResult{DocumentID: documentID}, nil
}

type observed struct {
	sc     *server.ServerContext
	reader *sdkmetric.ManualReader
	audit  *bytes.Buffer
}

func newObservedContext(t *testing.T) observed {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := instrumentation.NewMetrics(provider.Meter("test"), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	sc, err := server.NewServerContext(context.Background(), server.Options{
		Drive:       nopServices{},
		Docs:        nopServices{},
		Metrics:     metrics,
		AuditLogger: audit,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	return observed{sc: sc, reader: reader, audit: &buf}
}

// toolStatuses returns the invocation count per status label.
func (o observed) toolStatuses(t *testing.T) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, o.reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				counts[status.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	o := newObservedContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", o.sc, handler)(context.Background(), mcp.CallToolRequest{})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, called)
	assert.Equal(t, map[string]int64{"success": 1}, o.toolStatuses(t))
	assert.Contains(t, o.audit.String(), "tool_completed")
	assert.Contains(t, o.audit.String(), "test_tool")
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	o := newObservedContext(t)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	_, err := InstrumentedToolHandler("test_tool", o.sc, handler)(context.Background(), mcp.CallToolRequest{})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, map[string]int64{"error": 1}, o.toolStatuses(t))
	assert.Contains(t, o.audit.String(), "tool_failed")
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	o := newObservedContext(t)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("title is required"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", o.sc, handler)(context.Background(), mcp.CallToolRequest{})

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, map[string]int64{"error": 1}, o.toolStatuses(t))
	assert.Contains(t, o.audit.String(), "tool_failed")
	assert.Contains(t, o.audit.String(), "error_kind=tool_error")
}

func TestInstrumentedToolHandler_WithoutInstrumentation(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Drive: nopServices{},
		Docs:  nopServices{},
	})
	require.NoError(t, err)
	defer sc.Shutdown()

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_AddTool(t *testing.T) {
	o := newObservedContext(t)

	s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool("test_tool"), InstrumentedToolHandler("test_tool", o.sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("registered"), nil
		}))

	tool, ok := s.ListTools()["test_tool"]
	require.True(t, ok)

	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	assert.Equal(t, map[string]int64{"success": 1}, o.toolStatuses(t))
}
