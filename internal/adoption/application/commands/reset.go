package commands

import (
	"context"
	"fmt"
	"log/slog"

	notifapp "github.com/felixgeelhaar/petconnect/internal/notifications/application"
	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// ResetCommand purges the adoption queues and the notification history.
type ResetCommand struct{}

// ResetResult describes what the reset touched.
type ResetResult struct {
	QueuesReset bool
	Message     string
}

// ResetHandler handles the ResetCommand.
type ResetHandler struct {
	recorder *notifapp.Recorder
	queues   eventbus.QueueResetter
	logger   *slog.Logger
}

// NewResetHandler creates a ResetHandler. queues may be nil when no broker
// is configured; only the history is cleared then.
func NewResetHandler(recorder *notifapp.Recorder, queues eventbus.QueueResetter, logger *slog.Logger) *ResetHandler {
	return &ResetHandler{
		recorder: recorder,
		queues:   queues,
		logger:   observability.OrDefault(logger),
	}
}

// Handle executes the ResetCommand. A broker failure is recorded as an
// error notification and leaves the history in place.
func (h *ResetHandler) Handle(ctx context.Context, _ ResetCommand) (*ResetResult, error) {
	result := &ResetResult{Message: "Notification history cleared"}

	if h.queues != nil {
		if err := h.queues.ResetQueues(ctx); err != nil {
			h.logger.ErrorContext(ctx, "queue reset failed", "error", err)
			if _, recErr := h.recorder.Record(ctx, notifdomain.KindError, "RESET ERROR",
				fmt.Sprintf("Error resetting RabbitMQ: %v", err)); recErr != nil {
				h.logger.ErrorContext(ctx, "failed to record reset error", "error", recErr)
			}
			return nil, fmt.Errorf("failed to reset queues: %w", err)
		}
		result.QueuesReset = true
		result.Message = "RabbitMQ queues reset successfully"
	}

	if err := h.recorder.History().Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear notifications: %w", err)
	}
	if _, err := h.recorder.Record(ctx, notifdomain.KindInfo, "SYSTEM RESET", result.Message); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "system reset", "queues_reset", result.QueuesReset)
	return result, nil
}
