package strata

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/pitabwire/strata"

// telemetry holds the meters shared by all composites. Degraded tiers are
// observable only here and in logs; they never surface on return values.
type telemetry struct {
	tierFaults metric.Int64Counter
	promotions metric.Int64Counter
}

func newTelemetry() *telemetry {
	meter := otel.Meter(instrumentationName)

	tierFaults, _ := meter.Int64Counter(
		"strata.tier.faults",
		metric.WithDescription("Tier operations that failed and were recovered by the composite"),
	)
	promotions, _ := meter.Int64Counter(
		"strata.tier.promotions",
		metric.WithDescription("Values written back into earlier tiers after a lower-tier hit"),
	)

	return &telemetry{
		tierFaults: tierFaults,
		promotions: promotions,
	}
}

func (t *telemetry) recordFault(ctx context.Context, cacheName, op string, tierIndex int) {
	t.tierFaults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cacheName),
		attribute.String("operation", op),
		attribute.Int("tier", tierIndex),
	))
}

func (t *telemetry) recordPromotion(ctx context.Context, cacheName string, count int64) {
	t.promotions.Add(ctx, count, metric.WithAttributes(
		attribute.String("cache", cacheName),
	))
}
