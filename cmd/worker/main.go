package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/petconnect/internal/adoption/subscribers"
	"github.com/felixgeelhaar/petconnect/internal/app"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/petconnect/pkg/config"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting petconnect results worker")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("PETCONNECT_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewInMemoryMetrics()
	registry := eventbus.NewConsumerRegistry(logger)
	registry.Register(subscribers.NewResultsLogger(logger, metrics))

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:      cfg.RabbitMQURL,
		Queue:    cfg.ResultsQueue,
		Topology: app.Topology(cfg),
		Logger:   logger,
	}, registry)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	health := observability.NewHealthRegistry()
	health.Register("rabbitmq", observability.RabbitMQHealthChecker(consumer.Ping))

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			result := health.Check(checkCtx)

			w.Header().Set("Content-Type", "application/json")
			if result.Status == observability.HealthStatusUnhealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"health":  result,
				"metrics": metrics.Snapshot(),
			})
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
