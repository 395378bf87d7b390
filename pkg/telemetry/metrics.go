package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	instrumentsOnce sync.Once

	reviewsSubmitted        metric.Int64Counter
	postTransitions         metric.Int64Counter
	contributionTransitions metric.Int64Counter
	outboxDeliveries        metric.Int64Counter
)

// initInstruments binds the counters to whatever meter provider is global at
// the time of the first call. Before Init runs that is the no-op provider.
func initInstruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		reviewsSubmitted, _ = meter.Int64Counter("agora.reviews.submitted",
			metric.WithDescription("Post reviews accepted, by verdict"))
		postTransitions, _ = meter.Int64Counter("agora.posts.transitions",
			metric.WithDescription("Post status transitions, by target status"))
		contributionTransitions, _ = meter.Int64Counter("agora.contributions.transitions",
			metric.WithDescription("Contribution status transitions, by target status"))
		outboxDeliveries, _ = meter.Int64Counter("agora.outbox.deliveries",
			metric.WithDescription("Outbox delivery attempts, by kind and result"))
	})
}

// RecordReview counts an accepted post review.
func RecordReview(ctx context.Context, verdict string) {
	initInstruments()
	if reviewsSubmitted != nil {
		reviewsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("verdict", verdict)))
	}
}

// RecordPostTransition counts a post moving to status.
func RecordPostTransition(ctx context.Context, status string) {
	initInstruments()
	if postTransitions != nil {
		postTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

// RecordContributionTransition counts a contribution reaching a terminal status.
func RecordContributionTransition(ctx context.Context, status string) {
	initInstruments()
	if contributionTransitions != nil {
		contributionTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

// RecordOutboxDelivery counts one delivery attempt.
func RecordOutboxDelivery(ctx context.Context, kind, result string) {
	initInstruments()
	if outboxDeliveries != nil {
		outboxDeliveries.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("result", result),
		))
	}
}
