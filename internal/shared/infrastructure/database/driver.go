package database

import (
	"fmt"
	"strings"
)

// Driver identifies the SQL backend holding notification history.
type Driver string

const (
	// DriverPostgres stores history in PostgreSQL.
	DriverPostgres Driver = "postgres"
	// DriverSQLite stores history in an embedded SQLite file.
	DriverSQLite Driver = "sqlite"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// ParseDriver converts a configuration value into a Driver.
// "auto" and the empty string are resolved from url.
func ParseDriver(value, url string) (Driver, error) {
	switch v := Driver(strings.ToLower(strings.TrimSpace(value))); v {
	case "", "auto":
		return DetectDriver(url), nil
	case DriverPostgres, DriverSQLite:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", value)
	}
}

// DetectDriver guesses the driver from a connection string.
// An empty URL selects SQLite so the server runs without external services.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"), strings.HasSuffix(url, ".sqlite3"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}
