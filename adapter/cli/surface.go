package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/felixgeelhaar/petconnect/internal/client"
)

// TerminalSurface prints button changes and new feed entries as lines.
type TerminalSurface struct {
	mu      sync.Mutex
	out     io.Writer
	printed map[string]bool
}

// NewTerminalSurface creates a surface writing to out.
func NewTerminalSurface(out io.Writer) *TerminalSurface {
	return &TerminalSurface{out: out, printed: make(map[string]bool)}
}

// RenderButton implements client.Surface.
func (s *TerminalSurface) RenderButton(view client.ButtonView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "[%s] %s\n", view.ItemID, view.Label)
}

// RenderFeed implements client.Surface. Only entries not shown before are
// printed; keys that left the feed are forgotten.
func (s *TerminalSurface) RenderFeed(view client.FeedView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]bool, len(view.Entries))
	// oldest first so the terminal reads top to bottom
	for i := len(view.Entries) - 1; i >= 0; i-- {
		e := view.Entries[i]
		current[e.Key] = true
		if s.printed[e.Key] {
			continue
		}
		fmt.Fprintln(s.out, formatEntry(e.Notification))
	}
	s.printed = current
}

// tracked returns how many feed entries the surface remembers.
func (s *TerminalSurface) tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.printed)
}

func formatEntry(n client.Notification) string {
	var b strings.Builder
	if !n.Timestamp.IsZero() {
		b.WriteString(n.Timestamp.Format("15:04:05"))
		b.WriteString("  ")
	}
	b.WriteString(n.Kind.Icon())
	b.WriteString(" ")
	b.WriteString(n.Title)
	if n.Message != "" {
		b.WriteString(": ")
		b.WriteString(n.Message)
	}
	return b.String()
}

// printFeed writes the whole feed.
func printFeed(out io.Writer, view client.FeedView) {
	if view.Placeholder {
		fmt.Fprintln(out, "No notifications yet.")
		return
	}
	for _, e := range view.Entries {
		marker := " "
		if e.Local {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, formatEntry(e.Notification))
	}
}
