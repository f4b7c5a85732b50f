package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("upstream", "sensor"),
		attribute.String("user_id", "456"),
		attribute.String("status_code", "200"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "upstream" && attrs[1].Key != "upstream" {
		t.Fatalf("expected upstream to be retained")
	}
	if attrs[0].Key != "status_code" && attrs[1].Key != "status_code" {
		t.Fatalf("expected status_code to be retained")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordSensorReadings(ctx, "updated", 4)
	m.RecordTriggerEvaluation(ctx, "temperature", "triggered")
	m.RecordPumpSwitch(ctx, "trigger", true, 2)
	m.RecordProxyRequest(ctx, "sensor", 0)
	m.RecordRateLimitDenied(ctx, "weather", "rate_limited")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "fieldwatch-test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordProxyRequest(context.Background(), "sensor", 503)
}
