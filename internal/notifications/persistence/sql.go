package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/internal/shared/application"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/database"
)

// dialect holds the statements that differ between SQLite and PostgreSQL.
type dialect struct {
	insert string
	trim   string
	list   string
	clear  string
}

var sqliteDialect = dialect{
	insert: `INSERT INTO notifications (id, kind, title, message, created_at) VALUES (?, ?, ?, ?, ?)`,
	trim:   `DELETE FROM notifications WHERE seq NOT IN (SELECT seq FROM notifications ORDER BY seq DESC LIMIT ?)`,
	list:   `SELECT id, kind, title, message, created_at FROM notifications ORDER BY seq DESC LIMIT ?`,
	clear:  `DELETE FROM notifications`,
}

var postgresDialect = dialect{
	insert: `INSERT INTO notifications (id, kind, title, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
	trim:   `DELETE FROM notifications WHERE seq NOT IN (SELECT seq FROM notifications ORDER BY seq DESC LIMIT $1)`,
	// id and created_at are rendered as text so both drivers scan into record.
	list: `SELECT id::text, kind, title, message, to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.US"Z"')
		FROM notifications ORDER BY seq DESC LIMIT $1`,
	clear: `DELETE FROM notifications`,
}

// SQLHistory stores the history in the notifications table. Insert and trim
// run in one unit of work so readers never see more than capacity rows.
type SQLHistory struct {
	conn     database.Connection
	uow      application.UnitOfWork
	dialect  dialect
	capacity int
}

// NewSQLHistory creates a history for conn, choosing statements by driver.
func NewSQLHistory(conn database.Connection, capacity int) *SQLHistory {
	if capacity <= 0 {
		capacity = domain.DefaultHistoryCapacity
	}
	d := sqliteDialect
	if conn.Driver() == database.DriverPostgres {
		d = postgresDialect
	}
	return &SQLHistory{
		conn:     conn,
		uow:      database.NewUnitOfWork(conn),
		dialect:  d,
		capacity: capacity,
	}
}

// Add inserts n and drops rows beyond capacity.
func (h *SQLHistory) Add(ctx context.Context, n domain.Notification) error {
	r := toRecord(n)
	return application.WithUnitOfWork(ctx, h.uow, func(ctx context.Context) error {
		exec := database.ExecutorFromContext(ctx, h.conn)
		if _, err := exec.Exec(ctx, h.dialect.insert, r.ID, r.Kind, r.Title, r.Message, h.createdAt(n, r)); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
		if _, err := exec.Exec(ctx, h.dialect.trim, h.capacity); err != nil {
			return fmt.Errorf("failed to trim notifications: %w", err)
		}
		return nil
	})
}

// createdAt passes a time.Time to PostgreSQL and RFC 3339 text to SQLite.
func (h *SQLHistory) createdAt(n domain.Notification, r record) any {
	if h.conn.Driver() == database.DriverPostgres {
		return n.Timestamp.UTC()
	}
	return r.CreatedAt
}

// List returns the history newest first.
func (h *SQLHistory) List(ctx context.Context) ([]domain.Notification, error) {
	rows, err := database.ExecutorFromContext(ctx, h.conn).Query(ctx, h.dialect.list, h.capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		var r record
		if err := rows.Scan(&r.ID, &r.Kind, &r.Title, &r.Message, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Clear deletes every row.
func (h *SQLHistory) Clear(ctx context.Context) error {
	if _, err := database.ExecutorFromContext(ctx, h.conn).Exec(ctx, h.dialect.clear); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (h *SQLHistory) Ping(ctx context.Context) error {
	return h.conn.Ping(ctx)
}
