package push

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/sangamlabs/sangam/internal/push"

// Metrics holds instruments for monitoring push delivery.
type Metrics struct {
	sentTotal        metric.Int64Counter
	failedTotal      metric.Int64Counter
	deactivatedTotal metric.Int64Counter
	gatewayErrors    metric.Int64Counter
}

// NewMetrics creates push delivery metrics.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	sentTotal, err := meter.Int64Counter(
		"push.dispatch.sent",
		metric.WithDescription("Number of tokens the gateway accepted a message for"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	failedTotal, err := meter.Int64Counter(
		"push.dispatch.failed",
		metric.WithDescription("Number of tokens that failed a delivery attempt"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	deactivatedTotal, err := meter.Int64Counter(
		"push.dispatch.deactivated",
		metric.WithDescription("Number of dead device tokens pruned from the registry"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	gatewayErrors, err := meter.Int64Counter(
		"push.gateway.errors",
		metric.WithDescription("Number of whole-call gateway failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sentTotal:        sentTotal,
		failedTotal:      failedTotal,
		deactivatedTotal: deactivatedTotal,
		gatewayErrors:    gatewayErrors,
	}, nil
}

// RecordDispatch records the outcome of one dispatch.
func (m *Metrics) RecordDispatch(result DispatchResult, kind string) {
	attrs := metric.WithAttributes(attribute.String("notification.kind", kind))

	// Metrics use a background context so a cancelled request context
	// does not drop the recording.
	ctx := context.Background()
	m.sentTotal.Add(ctx, int64(result.Sent), attrs)
	m.failedTotal.Add(ctx, int64(result.Failed), attrs)
	m.deactivatedTotal.Add(ctx, int64(result.Deactivated), attrs)
	m.gatewayErrors.Add(ctx, int64(len(result.Errors)), attrs)
}
