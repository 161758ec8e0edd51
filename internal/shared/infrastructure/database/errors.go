package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNoRows is returned when a query expected to return a row returns none.
	ErrNoRows = errors.New("no rows in result set")

	// ErrNoTransaction is returned when Commit or Rollback runs outside Begin.
	ErrNoTransaction = errors.New("no transaction in context")
)

// IsNoRows reports whether err means no rows, for either driver.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}
