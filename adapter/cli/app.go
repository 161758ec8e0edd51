package cli

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/petconnect/internal/client"
	"github.com/felixgeelhaar/petconnect/internal/client/httpremote"
	"github.com/felixgeelhaar/petconnect/pkg/config"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// Remote is the server API the commands use.
type Remote interface {
	client.Remote
	Reset(ctx context.Context) (string, error)
	Health(ctx context.Context) (observability.OverallHealth, error)
}

// App holds the CLI application dependencies.
type App struct {
	Config *config.Config
	Remote Remote
	Logger *slog.Logger
}

// NewApp creates the CLI application for cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	logger = observability.OrDefault(logger)
	return &App{
		Config: cfg,
		Remote: httpremote.New(httpremote.Config{
			BaseURL:          cfg.ServerURL,
			Timeout:          cfg.ClientTimeout,
			FailureThreshold: cfg.BreakerFailureThreshold,
			OpenTimeout:      cfg.BreakerOpenTimeout,
			Logger:           logger,
		}),
		Logger: logger,
	}
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
