package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	return m, reader
}

// collect returns the data points of every metric by name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterTotal(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func histogramCount(t *testing.T, data metricdata.Aggregation) uint64 {
	t.Helper()
	hist, ok := data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected float64 histogram, got %T", data)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	return count
}

func TestMetrics_Record(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceDrive, OperationCopy, StatusSuccess, 200*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceDocs, OperationBatchUpdate, StatusError, 50*time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	m.RecordPipelineRun(ctx, "gollm", StatusSuccess, "")
	m.RecordPipelineRun(ctx, "openai", StatusError, "export")
	m.RecordPipelineStep(ctx, "copy", StatusSuccess, time.Second)
	m.RecordToolInvocation(ctx, "coverletter_generate", StatusSuccess, 3*time.Second)

	data := collect(t, reader)

	assert.Equal(t, int64(1), counterTotal(t, data["http_requests_total"]))
	assert.Equal(t, int64(2), counterTotal(t, data["google_api_operations_total"]))
	assert.Equal(t, uint64(2), histogramCount(t, data["google_api_operation_duration_seconds"]))
	assert.Equal(t, int64(1), counterTotal(t, data["oauth_auth_total"]))
	assert.Equal(t, int64(1), counterTotal(t, data["oauth_token_refresh_total"]))
	assert.Equal(t, int64(2), counterTotal(t, data["pipeline_runs_total"]))
	assert.Equal(t, uint64(1), histogramCount(t, data["pipeline_step_duration_seconds"]))
	assert.Equal(t, int64(1), counterTotal(t, data["mcp_tool_invocations_total"]))
	assert.Equal(t, uint64(1), histogramCount(t, data["mcp_tool_duration_seconds"]))
}

func TestMetrics_PipelineRunFailedStepLabel(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordPipelineRun(ctx, "gollm", StatusError, "fill")

	sum, ok := collect(t, reader)["pipeline_runs_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	step, found := sum.DataPoints[0].Attributes.Value(attrStep)
	require.True(t, found)
	assert.Equal(t, "fill", step.AsString())
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	require.NoError(t, err)

	metrics := provider.Metrics()
	require.NotNil(t, metrics, "expected metrics to be non-nil even when disabled")

	// None of these may panic with uninitialized instruments.
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceDrive, OperationExport, StatusSuccess, 200*time.Millisecond)
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordPipelineRun(ctx, "gollm", StatusSuccess, "")
	metrics.RecordPipelineStep(ctx, "compose", StatusSuccess, time.Second)
	metrics.RecordToolInvocation(ctx, "test_tool", StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordGoogleAPIOperation(ctx, ServiceDrive, OperationCopy, StatusSuccess, time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthResultFailure)
	m.RecordPipelineRun(ctx, "gollm", StatusError, "copy")
	assert.False(t, m.DetailedLabels())
}
