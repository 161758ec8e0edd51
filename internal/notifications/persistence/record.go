package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/petconnect/internal/notifications/domain"
)

// record is the serialized form shared by the Redis and SQL stores.
type record struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func toRecord(n domain.Notification) record {
	return record{
		ID:        n.ID.String(),
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func (r record) toDomain() (domain.Notification, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("invalid notification id %q: %w", r.ID, err)
	}
	kind, err := domain.ParseKind(r.Kind)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("notification %s: %w", r.ID, err)
	}
	at, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("notification %s: invalid timestamp: %w", r.ID, err)
	}
	return domain.Notification{
		ID:        id,
		Kind:      kind,
		Title:     r.Title,
		Message:   r.Message,
		Timestamp: at,
	}, nil
}

func marshalRecord(n domain.Notification) ([]byte, error) {
	return json.Marshal(toRecord(n))
}

func unmarshalRecord(data []byte) (domain.Notification, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Notification{}, fmt.Errorf("failed to decode notification: %w", err)
	}
	return r.toDomain()
}
