package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryCapacity is how many notifications the server keeps.
const DefaultHistoryCapacity = 15

// Kind classifies a notification.
type Kind string

const (
	KindSuccess    Kind = "success"
	KindError      Kind = "error"
	KindWarning    Kind = "warning"
	KindInfo       Kind = "info"
	KindSent       Kind = "envio"
	KindProcessing Kind = "procesamiento"
	KindResponse   Kind = "respuesta"
)

// ErrInvalidKind is returned when a notification kind is unknown.
var ErrInvalidKind = errors.New("invalid notification kind")

// IsValid returns true for the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo, KindSent, KindProcessing, KindResponse:
		return true
	default:
		return false
	}
}

// Icon returns the glyph shown next to the notification.
func (k Kind) Icon() string {
	switch k {
	case KindSent:
		return "📤"
	case KindProcessing:
		return "⚙️"
	case KindResponse:
		return "📥"
	case KindError:
		return "❌"
	case KindWarning:
		return "⚠️"
	case KindSuccess:
		return "✅"
	case KindInfo:
		return "ℹ️"
	default:
		return "🔔"
	}
}

// ParseKind converts a wire value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// Notification is a single entry of the notification feed.
type Notification struct {
	ID        uuid.UUID
	Kind      Kind
	Title     string
	Message   string
	Timestamp time.Time
}

// NewNotification creates a notification with a fresh ID.
func NewNotification(kind Kind, title, message string, at time.Time) Notification {
	return Notification{
		ID:        uuid.New(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Timestamp: at,
	}
}

// History stores the canonical, newest-first notification list.
type History interface {
	// Add records a notification at the head of the history.
	Add(ctx context.Context, n Notification) error

	// List returns the notifications newest first.
	List(ctx context.Context) ([]Notification, error)

	// Clear removes every notification.
	Clear(ctx context.Context) error
}
