package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

// RunSQLiteMigrations executes all SQLite migrations in order.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return run(ctx, "sqlite", func(ctx context.Context, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}

// RunPostgresMigrations executes all PostgreSQL migrations in order.
func RunPostgresMigrations(ctx context.Context, exec database.Executor) error {
	return run(ctx, "postgres", func(ctx context.Context, stmt string) error {
		_, err := exec.Exec(ctx, stmt)
		return err
	})
}

// Run applies the migrations matching the connection's driver.
func Run(ctx context.Context, conn database.Connection) error {
	switch conn.Driver() {
	case database.DriverPostgres:
		return RunPostgresMigrations(ctx, conn)
	case database.DriverSQLite:
		return run(ctx, "sqlite", func(ctx context.Context, stmt string) error {
			_, err := conn.Exec(ctx, stmt)
			return err
		})
	default:
		return fmt.Errorf("no migrations for driver %s", conn.Driver())
	}
}

func run(ctx context.Context, dir string, exec func(ctx context.Context, stmt string) error) error {
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	// CREATE ... IF NOT EXISTS keeps every file idempotent.
	for _, file := range upFiles {
		migration, err := migrationsFS.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		for _, stmt := range splitStatements(string(migration)) {
			if err := exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", file, err)
			}
		}
	}

	return nil
}

// splitStatements splits a migration file into single statements.
func splitStatements(migration string) []string {
	var stmts []string
	for _, part := range strings.Split(migration, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
