package application

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/utils/clock"

	"github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// Recorder stamps and stores server notifications.
type Recorder struct {
	history domain.History
	clock   clock.PassiveClock
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewRecorder creates a Recorder. A nil clock uses the wall clock.
func NewRecorder(history domain.History, clk clock.PassiveClock, logger *slog.Logger, metrics observability.Metrics) *Recorder {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Recorder{
		history: history,
		clock:   clk,
		logger:  observability.OrDefault(logger),
		metrics: metrics,
	}
}

// Record adds a notification to the history.
func (r *Recorder) Record(ctx context.Context, kind domain.Kind, title, message string) (domain.Notification, error) {
	if !kind.IsValid() {
		return domain.Notification{}, domain.ErrInvalidKind
	}

	n := domain.NewNotification(kind, title, message, r.clock.Now())
	if err := r.history.Add(ctx, n); err != nil {
		return domain.Notification{}, fmt.Errorf("failed to record %s notification: %w", kind, err)
	}

	r.metrics.Counter(observability.MetricNotificationsRecorded, 1, observability.T("kind", string(kind)))
	r.logger.InfoContext(ctx, "notification recorded",
		"kind", kind,
		"title", title,
		"message", message,
	)
	return n, nil
}

// History returns the underlying store.
func (r *Recorder) History() domain.History {
	return r.history
}
