package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDriver(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected Driver
	}{
		{name: "empty URL selects SQLite", url: "", expected: DriverSQLite},
		{name: "postgres scheme", url: "postgres://petconnect:pw@localhost:5432/petconnect", expected: DriverPostgres},
		{name: "postgresql scheme", url: "postgresql://localhost/petconnect", expected: DriverPostgres},
		{name: "sqlite scheme", url: "sqlite:///var/lib/petconnect.sqlite", expected: DriverSQLite},
		{name: "file scheme", url: "file:/tmp/history", expected: DriverSQLite},
		{name: "db extension", url: "/data/petconnect.db", expected: DriverSQLite},
		{name: "sqlite3 extension", url: "/data/petconnect.sqlite3", expected: DriverSQLite},
		{name: "unknown falls back to PostgreSQL", url: "mysql://localhost/db", expected: DriverPostgres},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDriver(tt.url))
		})
	}
}

func TestParseDriver(t *testing.T) {
	t.Run("explicit driver wins over URL", func(t *testing.T) {
		d, err := ParseDriver("SQLite", "postgres://localhost/petconnect")
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, d)
	})

	t.Run("auto detects from URL", func(t *testing.T) {
		d, err := ParseDriver("auto", "postgres://localhost/petconnect")
		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, d)
	})

	t.Run("rejects unknown drivers", func(t *testing.T) {
		_, err := ParseDriver("mysql", "")
		assert.Error(t, err)
	})
}

func TestDriver_IsValid(t *testing.T) {
	assert.True(t, DriverPostgres.IsValid())
	assert.True(t, DriverSQLite.IsValid())
	assert.False(t, Driver("mysql").IsValid())
	assert.Equal(t, "sqlite", DriverSQLite.String())
}
