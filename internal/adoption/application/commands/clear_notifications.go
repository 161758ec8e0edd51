package commands

import (
	"context"
	"fmt"
	"log/slog"

	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// ClearNotificationsCommand empties the notification history.
type ClearNotificationsCommand struct{}

// ClearNotificationsHandler handles the ClearNotificationsCommand.
type ClearNotificationsHandler struct {
	history notifdomain.History
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewClearNotificationsHandler creates a new ClearNotificationsHandler.
func NewClearNotificationsHandler(history notifdomain.History, logger *slog.Logger, metrics observability.Metrics) *ClearNotificationsHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ClearNotificationsHandler{
		history: history,
		logger:  observability.OrDefault(logger),
		metrics: metrics,
	}
}

// Handle executes the ClearNotificationsCommand.
func (h *ClearNotificationsHandler) Handle(ctx context.Context, _ ClearNotificationsCommand) error {
	if err := h.history.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	h.metrics.Counter(observability.MetricNotificationsCleared, 1)
	h.logger.InfoContext(ctx, "notifications cleared")
	return nil
}
