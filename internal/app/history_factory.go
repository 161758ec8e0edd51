package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/internal/notifications/persistence"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/petconnect/pkg/config"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// historyBackend is an opened notification store.
type historyBackend struct {
	history notifdomain.History
	name    string
	// check is nil for the in-memory store.
	check observability.HealthChecker
	close func() error
}

// openHistory opens the store selected by cfg.NotificationStore. Redis
// falls back to memory in development when it cannot be reached.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*historyBackend, error) {
	switch cfg.NotificationStore {
	case config.StoreMemory, "":
		return memoryBackend(cfg), nil

	case config.StoreRedis:
		backend, err := openRedisHistory(ctx, cfg)
		if err != nil {
			if !cfg.IsDevelopment() {
				return nil, err
			}
			logger.Warn("Redis not available, notification history will use in-memory fallback", "error", err)
			return memoryBackend(cfg), nil
		}
		logger.Info("connected to Redis")
		return backend, nil

	case config.StoreSQLite:
		return openSQLHistory(ctx, cfg, database.Config{
			Driver:     database.DriverSQLite,
			SQLitePath: cfg.SQLitePath,
		}, logger)

	case config.StorePostgres:
		return openSQLHistory(ctx, cfg, database.Config{
			Driver: database.DriverPostgres,
			URL:    cfg.DatabaseURL,
		}, logger)

	case config.StoreDatabase:
		driver, err := database.ParseDriver("auto", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		dbCfg := database.Config{Driver: driver, URL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath}
		if driver == database.DriverSQLite && cfg.DatabaseURL != "" {
			dbCfg.SQLitePath = sqlitePath(cfg.DatabaseURL)
		}
		return openSQLHistory(ctx, cfg, dbCfg, logger)

	default:
		return nil, fmt.Errorf("unsupported notification store: %s", cfg.NotificationStore)
	}
}

// sqlitePath turns a sqlite:// or file: URL into a file path.
func sqlitePath(url string) string {
	for _, prefix := range []string{"sqlite://", "file:"} {
		if rest, ok := strings.CutPrefix(url, prefix); ok {
			return rest
		}
	}
	return url
}

func memoryBackend(cfg *config.Config) *historyBackend {
	return &historyBackend{
		history: persistence.NewMemoryHistory(cfg.HistoryCapacity),
		name:    config.StoreMemory,
		close:   func() error { return nil },
	}
}

func openRedisHistory(ctx context.Context, cfg *config.Config) (*historyBackend, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	history := persistence.NewRedisHistory(client, persistence.DefaultRedisKey, cfg.HistoryCapacity)
	return &historyBackend{
		history: history,
		name:    config.StoreRedis,
		check:   observability.RedisHealthChecker(history.Ping),
		close:   client.Close,
	}, nil
}

func openSQLHistory(ctx context.Context, cfg *config.Config, dbCfg database.Config, logger *slog.Logger) (*historyBackend, error) {
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("connected to database", "driver", conn.Driver().String())

	history := persistence.NewSQLHistory(conn, cfg.HistoryCapacity)
	return &historyBackend{
		history: history,
		name:    conn.Driver().String(),
		check:   observability.DatabaseHealthChecker(history.Ping),
		close:   conn.Close,
	}, nil
}
