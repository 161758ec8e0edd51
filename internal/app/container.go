package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"k8s.io/utils/clock"

	"github.com/felixgeelhaar/petconnect/adapter/api"
	"github.com/felixgeelhaar/petconnect/internal/adoption/application/commands"
	"github.com/felixgeelhaar/petconnect/internal/adoption/application/queries"
	adoptiondomain "github.com/felixgeelhaar/petconnect/internal/adoption/domain"
	"github.com/felixgeelhaar/petconnect/internal/adoption/subscribers"
	notifapp "github.com/felixgeelhaar/petconnect/internal/notifications/application"
	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/petconnect/pkg/config"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// Container holds the adoption server's dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Storage
	History      notifdomain.History
	HistoryStore string

	// Messaging. Queues is nil unless a RabbitMQ broker is connected.
	Publisher eventbus.Publisher
	Queues    eventbus.QueueResetter

	Recorder *notifapp.Recorder

	// Command Handlers
	SubmitAdoptionHandler     *commands.SubmitAdoptionHandler
	ClearNotificationsHandler *commands.ClearNotificationsHandler
	ResetHandler              *commands.ResetHandler

	// Query Handlers
	ListNotificationsHandler *queries.ListNotificationsHandler

	Server *api.Server

	closers []func() error
}

// Topology returns the broker layout the server and worker share.
func Topology(cfg *config.Config) eventbus.Topology {
	return eventbus.Topology{
		Exchange: cfg.RabbitMQExchange,
		Queues: []eventbus.QueueBinding{
			{Queue: cfg.RequestsQueue, RoutingKey: adoptiondomain.RoutingKeyRequested},
			{Queue: cfg.ResultsQueue, RoutingKey: adoptiondomain.RoutingKeyDecided},
		},
	}
}

// NewContainer wires the adoption server from cfg.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	return newContainer(ctx, cfg, logger, clock.RealClock{})
}

func newContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, clk clock.Clock) (*Container, error) {
	logger = observability.OrDefault(logger)
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Clock:   clk,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	backend, err := openHistory(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.History = backend.history
	c.HistoryStore = backend.name
	c.closers = append(c.closers, backend.close)
	if backend.check != nil {
		c.Health.Register("notifications", backend.check)
	}

	if err := c.connectBroker(); err != nil {
		c.Close()
		return nil, err
	}

	c.Recorder = notifapp.NewRecorder(c.History, clk, logger, c.Metrics)

	c.SubmitAdoptionHandler = commands.NewSubmitAdoptionHandler(c.Recorder, c.Publisher, commands.SubmitAdoptionConfig{
		ProcessingDelay: cfg.ProcessingDelay,
		MinIncome:       cfg.MinIncome,
	}, clk, logger, c.Metrics)
	c.ClearNotificationsHandler = commands.NewClearNotificationsHandler(c.History, logger, c.Metrics)
	c.ResetHandler = commands.NewResetHandler(c.Recorder, c.Queues, logger)
	c.ListNotificationsHandler = queries.NewListNotificationsHandler(c.History)

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.RateLimitRPS = cfg.RateLimitRPS
	serverCfg.RateLimitBurst = cfg.RateLimitBurst
	// two processing delays plus headroom
	if minWrite := 2*cfg.ProcessingDelay + serverCfg.ReadTimeout; serverCfg.WriteTimeout < minWrite {
		serverCfg.WriteTimeout = minWrite
	}

	c.Server = api.NewServer(serverCfg, api.ServerDeps{
		Handler: api.NewAdoptionHandler(api.AdoptionHandlerConfig{
			Submit:            c.SubmitAdoptionHandler,
			Clear:             c.ClearNotificationsHandler,
			Reset:             c.ResetHandler,
			ListNotifications: c.ListNotificationsHandler,
			Logger:            logger,
		}),
		Health:   c.Health,
		Snapshot: c.Metrics,
		Metrics:  c.Metrics,
		Logger:   logger,
	})

	logger.Info("container ready",
		"notification_store", c.HistoryStore,
		"broker", c.Queues != nil,
	)
	return c, nil
}

// connectBroker connects to RabbitMQ, or uses the in-process bus when the
// broker is disabled or, in development, unreachable.
func (c *Container) connectBroker() error {
	cfg := c.Config
	if cfg.BrokerEnabled {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, Topology(cfg), c.Logger)
		if err == nil {
			c.Publisher = publisher
			c.Queues = publisher
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
			c.closers = append(c.closers, publisher.Close)
			c.Logger.Info("connected to RabbitMQ", "exchange", cfg.RabbitMQExchange)
			return nil
		}
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
	}

	bus := eventbus.NewInProcessEventBus(c.Logger)
	bus.RegisterConsumer(subscribers.NewResultsLogger(c.Logger, c.Metrics))
	c.Publisher = bus
	c.closers = append(c.closers, bus.Close)
	return nil
}

// Close releases every connection the container opened.
func (c *Container) Close() {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if err := errors.Join(errs...); err != nil {
		c.Logger.Warn("error closing container", "error", err)
	}
}
