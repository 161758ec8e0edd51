package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
)

// NotificationDTO is a notification as returned to callers.
type NotificationDTO struct {
	ID        uuid.UUID
	Kind      string
	Icon      string
	Title     string
	Message   string
	Timestamp time.Time
}

// ListNotificationsQuery lists the notification history.
type ListNotificationsQuery struct {
	// Limit caps the result; zero returns everything.
	Limit int
}

// ListNotificationsHandler handles ListNotificationsQuery.
type ListNotificationsHandler struct {
	history notifdomain.History
}

// NewListNotificationsHandler creates a new ListNotificationsHandler.
func NewListNotificationsHandler(history notifdomain.History) *ListNotificationsHandler {
	return &ListNotificationsHandler{history: history}
}

// Handle returns the history newest first.
func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) ([]NotificationDTO, error) {
	items, err := h.history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}

	dtos := make([]NotificationDTO, 0, len(items))
	for _, n := range items {
		dtos = append(dtos, NotificationDTO{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Icon:      n.Kind.Icon(),
			Title:     n.Title,
			Message:   n.Message,
			Timestamp: n.Timestamp,
		})
	}
	return dtos, nil
}
