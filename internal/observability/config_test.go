package observability

import (
	"testing"

	"github.com/smallbiznis/fieldwatch/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SERVICE_NAME", "")

	cfg := LoadConfig(config.Config{AppName: "sensor", Environment: "production", AppVersion: "1.2.3"})
	assert.Equal(t, "sensor", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")

	cfg := LoadConfig(config.Config{Environment: "production"})
	assert.Equal(t, "fieldwatch", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.True(t, cfg.Debug())
}

func TestComponentConfigsShareIdentity(t *testing.T) {
	cfg := Config{
		ServiceName:          "fieldwatch-gateway",
		Environment:          "staging",
		Version:              "0.1.0",
		LogLevel:             "debug",
		LogFormat:            "console",
		OtelEnabled:          true,
		OtelExporterEndpoint: "collector:4317",
		OtelExporterProtocol: "grpc",
		OtelSamplingRatio:    0.5,
	}

	got := componentConfigs(cfg)
	assert.Equal(t, "fieldwatch-gateway", got.Logger.ServiceName)
	assert.Equal(t, "fieldwatch-gateway", got.Tracing.ServiceName)
	assert.Equal(t, "fieldwatch-gateway", got.Metrics.ServiceName)
	assert.True(t, got.Logger.Debug)
	assert.True(t, got.Logger.IncludeStackOnError)
	assert.Equal(t, 0.5, got.Tracing.SamplingRatio)
	assert.Equal(t, "collector:4317", got.Metrics.ExporterEndpoint)
	assert.True(t, got.Metrics.Enabled)
}
