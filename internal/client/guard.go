package client

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Lease identifies one acquisition of an item. A release scheduled for an
// older lease never removes a newer one.
type Lease struct {
	ItemID string
	seq    uint64
}

// Guard allows at most one in-flight request per item.
type Guard struct {
	mu      sync.Mutex
	clock   clock.WithDelayedExecution
	seq     uint64
	entries map[string]uint64
}

// NewGuard creates an empty guard.
func NewGuard(clk clock.WithDelayedExecution) *Guard {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Guard{
		clock:   clk,
		entries: make(map[string]uint64),
	}
}

// TryAcquire marks the item in flight. It returns false, changing nothing,
// when the item is already held.
func (g *Guard) TryAcquire(itemID string) (Lease, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.entries[itemID]; held {
		return Lease{}, false
	}
	g.seq++
	g.entries[itemID] = g.seq
	return Lease{ItemID: itemID, seq: g.seq}, true
}

// Held reports whether the item is in flight or cooling down.
func (g *Guard) Held(itemID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.entries[itemID]
	return held
}

// Len returns the number of held items.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// ReleaseAfter removes the lease's entry once d has elapsed.
func (g *Guard) ReleaseAfter(lease Lease, d time.Duration) {
	if d <= 0 {
		g.release(lease)
		return
	}
	g.clock.AfterFunc(d, func() { g.release(lease) })
}

func (g *Guard) release(lease Lease) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq, ok := g.entries[lease.ItemID]; ok && seq == lease.seq {
		delete(g.entries, lease.ItemID)
	}
}
