package instrumentation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.NotNil(t, provider.Metrics(), "metrics must be usable even when disabled")
	assert.Nil(t, provider.MetricsHandler())
	assert.NotNil(t, provider.Tracer("test"))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name        string
		metrics     string
		tracing     string
		endpoint    string
		wantErr     bool
		wantHandler bool
	}{
		{"prometheus", ExporterPrometheus, ExporterNone, "", false, true},
		{"stdout", ExporterStdout, ExporterStdout, "", false, false},
		{"invalid metrics exporter", "invalid", ExporterNone, "", true, false},
		{"invalid tracing exporter", ExporterPrometheus, "invalid", "", true, false},
		{"otlp tracing without endpoint", ExporterPrometheus, ExporterOTLP, "", true, false},
		{"otlp metrics without endpoint", ExporterOTLP, ExporterNone, "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			provider, err := NewProvider(ctx, Config{
				ServiceName:       "test-service",
				ServiceVersion:    "1.0.0",
				Enabled:           true,
				MetricsExporter:   tt.metrics,
				TracingExporter:   tt.tracing,
				OTLPEndpoint:      tt.endpoint,
				TraceSamplingRate: 1,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = provider.Shutdown(ctx) }()

			assert.True(t, provider.Enabled())
			assert.NotNil(t, provider.Metrics())
			assert.Equal(t, tt.wantHandler, provider.MetricsHandler() != nil)
		})
	}
}

func TestProvider_MetricsHandlerServesPipelineMetrics(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordPipelineRun(ctx, "gollm", StatusSuccess, "")

	rec := httptest.NewRecorder()
	provider.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_runs_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestProvider_RegistriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	newPrometheusProvider := func() *Provider {
		p, err := NewProvider(ctx, Config{
			ServiceName:     "test-service",
			ServiceVersion:  "1.0.0",
			Enabled:         true,
			MetricsExporter: ExporterPrometheus,
			TracingExporter: ExporterNone,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Shutdown(ctx) })
		return p
	}

	first := newPrometheusProvider()
	second := newPrometheusProvider()

	first.Metrics().RecordPipelineRun(ctx, "openai", StatusError, "compose")

	scrape := func(p *Provider) string {
		rec := httptest.NewRecorder()
		p.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	assert.Contains(t, scrape(first), `backend="openai"`)
	assert.NotContains(t, scrape(second), `backend="openai"`)
}

func TestProvider_Shutdown(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	require.NoError(t, err)

	assert.NoError(t, provider.Shutdown(ctx))
}
