package observability

import (
	"context"
	"time"

	"candidate-onboarding/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the otel meter provider used for check telemetry.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	checkCounter  otelmetric.Int64Counter
	checkDuration otelmetric.Float64Histogram
}

// New registers a Prometheus-backed meter provider. On exporter failure it
// returns a no-op Observability so callers never need nil checks.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	checkCounter, _ := meter.Int64Counter(
		"checks.completed",
		otelmetric.WithDescription("Number of check attempts completed"),
	)

	checkDuration, _ := meter.Float64Histogram(
		"checks.duration",
		otelmetric.WithDescription("Check collaborator call duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		checkCounter:  checkCounter,
		checkDuration: checkDuration,
	}
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordCheck(ctx context.Context, check, status string) {
	if o == nil || o.checkCounter == nil {
		return
	}
	o.checkCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("check", check),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordCheckDuration(ctx context.Context, check string, duration time.Duration, status string) {
	if o == nil || o.checkDuration == nil {
		return
	}
	o.checkDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("check", check),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
