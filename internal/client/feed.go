package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// FeedEntry is one notification shown in the feed.
type FeedEntry struct {
	Key string
	Notification
	// Local entries were raised by this session and expire on their own.
	Local bool
	// Exiting entries are playing their exit animation.
	Exiting bool
}

// FeedView is a snapshot of the feed. Placeholder is set when it is empty.
type FeedView struct {
	Entries     []FeedEntry
	Placeholder bool
}

// FeedConfig tunes a Feed.
type FeedConfig struct {
	Capacity      int
	LocalTTL      time.Duration
	ExitAnimation time.Duration
}

// Feed is the bounded notification list: local entries at the head followed
// by the server history in server order.
type Feed struct {
	mu       sync.Mutex
	entries  []FeedEntry
	clock    clock.WithDelayedExecution
	remote   Remote
	surface  Surface
	logger   *slog.Logger
	capacity int
	ttl      time.Duration
	exit     time.Duration
}

// NewFeed creates an empty feed.
func NewFeed(cfg FeedConfig, remote Remote, clk clock.WithDelayedExecution, surface Surface, logger *slog.Logger) *Feed {
	if cfg.Capacity <= 0 {
		cfg.Capacity = FeedCapacity
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if surface == nil {
		surface = NoopSurface{}
	}
	return &Feed{
		clock:    clk,
		remote:   remote,
		surface:  surface,
		logger:   observability.OrDefault(logger).With("component", "feed"),
		capacity: cfg.Capacity,
		ttl:      cfg.LocalTTL,
		exit:     cfg.ExitAnimation,
	}
}

// View returns a copy of the current feed.
func (f *Feed) View() FeedView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *Feed) viewLocked() FeedView {
	entries := make([]FeedEntry, len(f.entries))
	copy(entries, f.entries)
	return FeedView{Entries: entries, Placeholder: len(entries) == 0}
}

// AddLocal inserts n at the head and schedules its expiry.
func (f *Feed) AddLocal(n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = f.clock.Now()
	}
	key := uuid.NewString()
	entry := FeedEntry{Key: key, Notification: n, Local: true}

	f.mu.Lock()
	f.entries = append([]FeedEntry{entry}, f.entries...)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[:f.capacity]
	}
	view := f.viewLocked()
	f.mu.Unlock()

	f.surface.RenderFeed(view)

	f.clock.AfterFunc(f.ttl, func() { f.markExiting(key) })
	f.clock.AfterFunc(f.ttl+f.exit, func() { f.remove(key) })
}

// markExiting and remove run on timer goroutines and must not touch the clock.
func (f *Feed) markExiting(key string) {
	f.mu.Lock()
	i := f.indexLocked(key)
	if i < 0 {
		f.mu.Unlock()
		return
	}
	f.entries[i].Exiting = true
	view := f.viewLocked()
	f.mu.Unlock()

	f.surface.RenderFeed(view)
}

func (f *Feed) remove(key string) {
	f.mu.Lock()
	i := f.indexLocked(key)
	if i < 0 {
		f.mu.Unlock()
		return
	}
	f.entries = append(f.entries[:i], f.entries[i+1:]...)
	view := f.viewLocked()
	f.mu.Unlock()

	f.surface.RenderFeed(view)
}

func (f *Feed) indexLocked(key string) int {
	for i, e := range f.entries {
		if e.Local && e.Key == key {
			return i
		}
	}
	return -1
}

// RefreshFromServer replaces every server entry with list, keeping its order.
func (f *Feed) RefreshFromServer(list []Notification) {
	f.mu.Lock()
	entries := make([]FeedEntry, 0, len(f.entries)+len(list))
	for _, e := range f.entries {
		if e.Local {
			entries = append(entries, e)
		}
	}
	for _, n := range list {
		entries = append(entries, FeedEntry{Key: n.ID, Notification: n})
	}
	if len(entries) > f.capacity {
		entries = entries[:f.capacity]
	}
	f.entries = entries
	view := f.viewLocked()
	f.mu.Unlock()

	f.surface.RenderFeed(view)
}

// Refresh fetches the server history once and shows it. A failed fetch
// leaves the feed as it was.
func (f *Feed) Refresh(ctx context.Context) error {
	list, err := f.remote.FetchNotifications(ctx)
	if err != nil {
		f.logger.WarnContext(ctx, "failed to load notifications", observability.ErrorKey, err)
		return &TransportError{Op: "fetch notifications", Err: err}
	}
	f.RefreshFromServer(list)
	return nil
}

// Clear empties the server history, then refreshes once.
func (f *Feed) Clear(ctx context.Context) error {
	if err := f.remote.ClearNotifications(ctx); err != nil {
		f.logger.WarnContext(ctx, "failed to clear notifications", observability.ErrorKey, err)
		return &TransportError{Op: "clear notifications", Err: err}
	}
	return f.Refresh(ctx)
}
