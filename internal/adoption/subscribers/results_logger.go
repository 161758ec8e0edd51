package subscribers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/petconnect/internal/adoption/domain"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// ResultsLogger logs every adoption decision read from the results queue.
type ResultsLogger struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewResultsLogger creates a ResultsLogger.
func NewResultsLogger(logger *slog.Logger, metrics observability.Metrics) *ResultsLogger {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ResultsLogger{
		logger:  observability.OrDefault(logger).With("consumer", "results_logger"),
		metrics: metrics,
	}
}

// EventTypes implements eventbus.EventConsumer.
func (c *ResultsLogger) EventTypes() []string {
	return []string{domain.RoutingKeyDecided}
}

// Handle implements eventbus.EventConsumer.
func (c *ResultsLogger) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var decided domain.AdoptionDecided
	if err := event.Decode(&decided); err != nil {
		return err
	}

	level := slog.LevelInfo
	if !decided.Approved {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "adoption result received",
		observability.ItemIDKey, decided.ItemID,
		"requester", decided.Requester,
		"income", domain.FormatIncome(decided.Income),
		"verdict", decided.Verdict,
		"reason", decided.Reason,
		"event_id", event.EventID,
	)
	c.metrics.Counter(observability.MetricEventsConsumed, 1,
		observability.T("routing_key", event.RoutingKey),
		observability.T("verdict", string(decided.Verdict)),
	)
	return nil
}
