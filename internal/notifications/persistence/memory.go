package persistence

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/petconnect/internal/notifications/domain"
)

// MemoryHistory keeps the history in process. It is the default store and
// loses everything on restart.
type MemoryHistory struct {
	mu       sync.RWMutex
	capacity int
	items    []domain.Notification
}

// NewMemoryHistory creates an in-memory history holding at most capacity entries.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = domain.DefaultHistoryCapacity
	}
	return &MemoryHistory{capacity: capacity}
}

// Add inserts n at the head and drops the oldest entries beyond capacity.
func (h *MemoryHistory) Add(_ context.Context, n domain.Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append([]domain.Notification{n}, h.items...)
	if len(h.items) > h.capacity {
		h.items = h.items[:h.capacity]
	}
	return nil
}

// List returns a copy of the history, newest first.
func (h *MemoryHistory) List(_ context.Context) ([]domain.Notification, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Notification, len(h.items))
	copy(out, h.items)
	return out, nil
}

// Clear empties the history.
func (h *MemoryHistory) Clear(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = nil
	return nil
}
