package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// SessionConfig configures a Session. Zero durations take the package defaults.
type SessionConfig struct {
	Remote   Remote
	Prompter Prompter
	Surface  Surface
	Clock    clock.WithDelayedExecution
	Logger   *slog.Logger

	Cooldown      time.Duration
	RejectDisplay time.Duration
	LocalTTL      time.Duration
	ExitAnimation time.Duration
	FeedCapacity  int
}

func (c *SessionConfig) applyDefaults() {
	if c.Surface == nil {
		c.Surface = NoopSurface{}
	}
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	c.Logger = observability.OrDefault(c.Logger)
	if c.Cooldown <= 0 {
		c.Cooldown = CooldownWindow
	}
	if c.RejectDisplay <= 0 {
		c.RejectDisplay = RejectDisplayWindow
	}
	if c.LocalTTL <= 0 {
		c.LocalTTL = LocalNotificationTTL
	}
	if c.ExitAnimation <= 0 {
		c.ExitAnimation = ExitAnimationWindow
	}
	if c.FeedCapacity <= 0 {
		c.FeedCapacity = FeedCapacity
	}
}

// Session owns the guard, buttons, feed and orchestrator of one user session.
type Session struct {
	guard        *Guard
	buttons      *Buttons
	feed         *Feed
	orchestrator *Orchestrator
}

// NewSession builds a session. Remote and Prompter are required.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Remote == nil {
		return nil, errors.New("session requires a remote")
	}
	if cfg.Prompter == nil {
		return nil, errors.New("session requires a prompter")
	}
	cfg.applyDefaults()

	guard := NewGuard(cfg.Clock)
	buttons := NewButtons(cfg.Clock, cfg.RejectDisplay, cfg.Surface)
	feed := NewFeed(FeedConfig{
		Capacity:      cfg.FeedCapacity,
		LocalTTL:      cfg.LocalTTL,
		ExitAnimation: cfg.ExitAnimation,
	}, cfg.Remote, cfg.Clock, cfg.Surface, cfg.Logger)

	return &Session{
		guard:        guard,
		buttons:      buttons,
		feed:         feed,
		orchestrator: NewOrchestrator(guard, buttons, feed, cfg.Remote, cfg.Prompter, cfg.Cooldown, cfg.Logger),
	}, nil
}

// Start loads the server history once.
func (s *Session) Start(ctx context.Context) error {
	return s.feed.Refresh(ctx)
}

// RequestAdoption runs one adoption attempt for itemID.
func (s *Session) RequestAdoption(ctx context.Context, itemID string) Result {
	return s.orchestrator.RequestAdoption(ctx, itemID)
}

// Clear empties the server history and refreshes the feed.
func (s *Session) Clear(ctx context.Context) error {
	return s.orchestrator.Clear(ctx)
}

func (s *Session) Guard() *Guard     { return s.guard }
func (s *Session) Buttons() *Buttons { return s.buttons }
func (s *Session) Feed() *Feed       { return s.feed }
