package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/felixgeelhaar/petconnect/internal/adoption/application/commands"
	"github.com/felixgeelhaar/petconnect/internal/adoption/application/queries"
	notifapp "github.com/felixgeelhaar/petconnect/internal/notifications/application"
	"github.com/felixgeelhaar/petconnect/internal/notifications/persistence"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

type failingPublisher struct {
	err error
}

func (p *failingPublisher) Publish(context.Context, string, []byte) error {
	return p.err
}

func (p *failingPublisher) Close() error { return nil }

func (p *failingPublisher) ResetQueues(context.Context) error {
	return p.err
}

type testServer struct {
	server  *Server
	history *persistence.MemoryHistory
	metrics *observability.InMemoryMetrics
}

func newTestServer(t *testing.T, publisher eventbus.Publisher, queues eventbus.QueueResetter, cfg ServerConfig) *testServer {
	t.Helper()
	clk := testclock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	history := persistence.NewMemoryHistory(15)
	metrics := observability.NewInMemoryMetrics()
	recorder := notifapp.NewRecorder(history, clk, nil, metrics)

	handler := NewAdoptionHandler(AdoptionHandlerConfig{
		Submit: commands.NewSubmitAdoptionHandler(recorder, publisher, commands.SubmitAdoptionConfig{
			MinIncome: 1_600_000,
		}, clk, nil, metrics),
		Clear:             commands.NewClearNotificationsHandler(history, nil, metrics),
		Reset:             commands.NewResetHandler(recorder, queues, nil),
		ListNotifications: queries.NewListNotificationsHandler(history),
	})

	health := observability.NewHealthRegistry()
	health.Register("history", observability.PingChecker("history", observability.HealthStatusUnhealthy,
		func(context.Context) error { return nil }))

	return &testServer{
		server: NewServer(cfg, ServerDeps{
			Handler:  handler,
			Health:   health,
			Snapshot: metrics,
			Metrics:  metrics,
		}),
		history: history,
		metrics: metrics,
	}
}

func noLimit() ServerConfig {
	cfg := DefaultServerConfig()
	cfg.RateLimitRPS = 0
	return cfg
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitAdoption(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		approved bool
		verdict  string
	}{
		{
			name:     "approved with numeric income",
			body:     `{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres","usuario_salario":2000000}`,
			status:   http.StatusOK,
			approved: true,
			verdict:  "APPROVED",
		},
		{
			name:    "rejected with string income",
			body:    `{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres","usuario_salario":"900000"}`,
			status:  http.StatusOK,
			verdict: "REJECTED",
		},
		{
			name:     "fractional income is truncated",
			body:     `{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres","usuario_salario":2000000.5}`,
			status:   http.StatusOK,
			approved: true,
			verdict:  "APPROVED",
		},
		{
			name:    "missing income defaults to zero",
			body:    `{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres"}`,
			status:  http.StatusOK,
			verdict: "REJECTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, noLimit())

			rec := ts.do(t, http.MethodPost, "/api/v1/adoptions", tt.body)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var resp submitAdoptionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "success", resp.Status)
			assert.Equal(t, tt.approved, resp.Result.Approved)
			assert.Equal(t, tt.verdict, resp.Result.Verdict)
			assert.Equal(t, "Luna_1", resp.Result.ItemID)
			assert.NotEmpty(t, resp.Result.Reason)
		})
	}
}

func TestSubmitAdoption_Errors(t *testing.T) {
	tests := []struct {
		name      string
		publisher eventbus.Publisher
		body      string
		status    int
		message   string
	}{
		{
			name:      "malformed body",
			publisher: eventbus.NewNoopPublisher(nil),
			body:      `{`,
			status:    http.StatusBadRequest,
			message:   "Invalid request body",
		},
		{
			name:      "missing pet",
			publisher: eventbus.NewNoopPublisher(nil),
			body:      `{"usuario_nombre":"Ana Torres","usuario_salario":1}`,
			status:    http.StatusBadRequest,
			message:   "No pet specified",
		},
		{
			name:      "invalid income",
			publisher: eventbus.NewNoopPublisher(nil),
			body:      `{"mascota_id":"Luna_1","usuario_nombre":"Ana","usuario_salario":"lots"}`,
			status:    http.StatusBadRequest,
			message:   "Income must be a valid number",
		},
		{
			name:      "broker down",
			publisher: &failingPublisher{err: errors.New("connection refused")},
			body:      `{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres","usuario_salario":1}`,
			status:    http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.publisher, nil, noLimit())

			rec := ts.do(t, http.MethodPost, "/api/v1/adoptions", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestLegacyRoutes(t *testing.T) {
	ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, noLimit())

	rec := ts.do(t, http.MethodPost, "/solicitar_adopcion",
		`{"mascota_id":"Max_2","usuario_nombre":"Ana Torres","usuario_salario":2000000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/notificaciones", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "respuesta", list[0].Kind)
	assert.Equal(t, "FINAL RESULT", list[0].Title)
	assert.Equal(t, "procesamiento", list[1].Kind)
	assert.Equal(t, "envio", list[2].Kind)

	rec = ts.do(t, http.MethodPost, "/limpiar_notificaciones", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/notificaciones", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListNotifications(t *testing.T) {
	ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, noLimit())
	ts.do(t, http.MethodPost, "/api/v1/adoptions",
		`{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres","usuario_salario":2000000}`)

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	n := list[0]
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "📥", n.Icon)
	assert.Len(t, n.Timestamp, len(clockLayout))
	assert.Len(t, n.Date, len(dateLayout))

	rec = ts.do(t, http.MethodGet, "/api/v1/notifications?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReset(t *testing.T) {
	t.Run("without broker", func(t *testing.T) {
		ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, noLimit())

		rec := ts.do(t, http.MethodPost, "/api/v1/admin/reset", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Notification history cleared", resp.Message)
	})

	t.Run("broker failure", func(t *testing.T) {
		queues := &failingPublisher{err: errors.New("channel closed")}
		ts := newTestServer(t, eventbus.NewNoopPublisher(nil), queues, noLimit())

		rec := ts.do(t, http.MethodPost, "/reset_rabbitmq", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		items, err := ts.history.List(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "RESET ERROR", items[0].Title)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, noLimit())
	ts.do(t, http.MethodPost, "/api/v1/adoptions",
		`{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres","usuario_salario":2000000}`)

	rec := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health observability.OverallHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
	assert.Contains(t, health.Checks, "history")

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap observability.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.NotEmpty(t, snap.Counters)
}

func TestCorrelationHeader(t *testing.T) {
	ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, noLimit())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(observability.CorrelationHeader, "corr-123")
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "corr-123", rec.Header().Get(observability.CorrelationHeader))

	rec = ts.do(t, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(observability.CorrelationHeader))
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, cfg)

	body := `{"mascota_id":"Luna_1","usuario_nombre":"Ana Torres","usuario_salario":2000000}`
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/v1/adoptions", body).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/solicitar_adopcion", body).Code)

	rec := ts.do(t, http.MethodPost, "/api/v1/adoptions", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, int64(1), ts.metrics.GetCounter(observability.MetricHTTPRateLimited))
}

func TestRateLimit_OnlySubmitRoutes(t *testing.T) {
	ts := newTestServer(t, eventbus.NewNoopPublisher(nil), nil, DefaultServerConfig())

	paths := []string{"/health", "/metrics", "/api/v1/notifications", "/notificaciones"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			for i := 0; i < 30; i++ {
				assert.NotEqual(t, http.StatusTooManyRequests, ts.do(t, http.MethodGet, path, "").Code)
			}
		})
	}
	for i := 0; i < 30; i++ {
		assert.NotEqual(t, http.StatusTooManyRequests,
			ts.do(t, http.MethodPost, "/api/v1/notifications/clear", "").Code)
	}
	assert.Zero(t, ts.metrics.GetCounter(observability.MetricHTTPRateLimited))
}

func TestLimiterStore(t *testing.T) {
	store := NewLimiterStore(1, 1)

	a := store.Get("10.0.0.1")
	assert.Same(t, a, store.Get("10.0.0.1"))
	assert.NotSame(t, a, store.Get("10.0.0.2"))
	assert.Equal(t, 2, store.Len())
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", ClientKey(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", ClientKey(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", ClientKey(req))
}
