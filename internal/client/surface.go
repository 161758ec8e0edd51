package client

// Surface displays button and feed snapshots. Calls may come from timer
// goroutines; implementations must not block.
type Surface interface {
	RenderButton(view ButtonView)
	RenderFeed(view FeedView)
}

// NoopSurface renders nothing.
type NoopSurface struct{}

func (NoopSurface) RenderButton(ButtonView) {}
func (NoopSurface) RenderFeed(FeedView)     {}
