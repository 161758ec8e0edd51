package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthRegistry(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		setup  func(r *HealthRegistry)
		status HealthStatus
	}{
		{
			name:   "empty registry is healthy",
			setup:  func(*HealthRegistry) {},
			status: HealthStatusHealthy,
		},
		{
			name: "broker down degrades",
			setup: func(r *HealthRegistry) {
				r.Register("database", DatabaseHealthChecker(ok))
				r.Register("rabbitmq", RabbitMQHealthChecker(down))
			},
			status: HealthStatusDegraded,
		},
		{
			name: "history store down is unhealthy",
			setup: func(r *HealthRegistry) {
				r.Register("redis", RedisHealthChecker(down))
				r.Register("rabbitmq", RabbitMQHealthChecker(down))
			},
			status: HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewHealthRegistry()
			tt.setup(r)

			health := r.Check(context.Background())

			assert.Equal(t, tt.status, health.Status)
			for _, result := range health.Checks {
				assert.False(t, result.Timestamp.IsZero())
			}
		})
	}
}

func TestPingChecker_Message(t *testing.T) {
	result := RabbitMQHealthChecker(func(context.Context) error {
		return errors.New("dial tcp: refused")
	})(context.Background())

	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Contains(t, result.Message, "rabbitmq connection failed")
}
