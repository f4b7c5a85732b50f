package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	sensorReadings     metric.Int64Counter
	triggerEvaluations metric.Int64Counter
	pumpSwitches       metric.Int64Counter
	proxyRequests      metric.Int64Counter
	rateLimitDenied    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "fieldwatch"
	}
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(name)

	sensorReadings, err := meter.Int64Counter("fieldwatch_sensor_readings_total")
	if err != nil {
		return nil, err
	}
	triggerEvaluations, err := meter.Int64Counter("fieldwatch_trigger_evaluations_total")
	if err != nil {
		return nil, err
	}
	pumpSwitches, err := meter.Int64Counter("fieldwatch_pump_switches_total")
	if err != nil {
		return nil, err
	}
	proxyRequests, err := meter.Int64Counter("fieldwatch_proxy_requests_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("fieldwatch_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sensorReadings:     sensorReadings,
		triggerEvaluations: triggerEvaluations,
		pumpSwitches:       pumpSwitches,
		proxyRequests:      proxyRequests,
		rateLimitDenied:    rateLimitDenied,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordSensorReadings counts synthesized readings by write mode.
func (m *Metrics) RecordSensorReadings(ctx context.Context, mode string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("mode", strings.TrimSpace(mode)))
	m.sensorReadings.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordTriggerEvaluation counts evaluations by outcome.
func (m *Metrics) RecordTriggerEvaluation(ctx context.Context, metricName, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("weather_metric", strings.TrimSpace(metricName)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.triggerEvaluations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPumpSwitch counts pump state changes by source.
func (m *Metrics) RecordPumpSwitch(ctx context.Context, source string, on bool, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(
		attribute.String("source", strings.TrimSpace(source)),
		attribute.Bool("is_on", on),
	)
	m.pumpSwitches.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordProxyRequest counts gateway calls to upstream services.
func (m *Metrics) RecordProxyRequest(ctx context.Context, upstream string, status int) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	attrs := FilterAttributes(
		attribute.String("upstream", strings.TrimSpace(upstream)),
		attribute.String("status_code", code),
	)
	m.proxyRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"mode":           {},
	"weather_metric": {},
	"outcome":        {},
	"source":         {},
	"is_on":          {},
	"upstream":       {},
	"status_code":    {},
	"endpoint":       {},
	"reason":         {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
