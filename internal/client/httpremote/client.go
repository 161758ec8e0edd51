// Package httpremote talks to the adoption server over its JSON API.
package httpremote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/petconnect/internal/client"
	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// ErrCircuitOpen is returned while the server is considered down.
var ErrCircuitOpen = errors.New("adoption server unavailable: circuit open")

const dateLayout = "2006-01-02 15:04:05"

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// FailureThreshold consecutive failures open the circuit for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements client.Remote against the HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
	logger  *slog.Logger
}

var _ client.Remote = (*Client)(nil)

type response struct {
	status int
	body   []byte
}

type serverError struct {
	response
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server returned %d", e.status)
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := observability.OrDefault(cfg.Logger).With("component", "httpremote")

	settings := gobreaker.Settings{
		Name:        "adoption-server",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker[response](settings),
		logger:  logger,
	}
}

// do sends one request. Transport failures and 5xx replies count against
// the breaker; a 5xx reply is still returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, payload any) (response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return response{}, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if id := observability.CorrelationIDFromContext(ctx); id != "" {
			req.Header.Set(observability.CorrelationHeader, id)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return response{}, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return response{}, fmt.Errorf("failed to read response: %w", err)
		}
		r := response{status: httpResp.StatusCode, body: data}
		if r.status >= http.StatusInternalServerError {
			return r, &serverError{response: r}
		}
		return r, nil
	})

	var srvErr *serverError
	switch {
	case err == nil:
		return resp, nil
	case errors.As(err, &srvErr):
		return srvErr.response, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return response{}, ErrCircuitOpen
	default:
		c.logger.DebugContext(ctx, "request failed", "method", method, "path", path, observability.ErrorKey, err)
		return response{}, err
	}
}

type submitRequest struct {
	ItemID        string `json:"mascota_id"`
	RequesterName string `json:"usuario_nombre"`
	Income        int64  `json:"usuario_salario"`
}

type submitReply struct {
	Status string `json:"estado"`
	Error  string `json:"error"`
	Result *struct {
		Approved *bool  `json:"aprobado"`
		Reason   string `json:"motivo"`
	} `json:"resultado"`
}

// SubmitAdoption implements client.Remote.
func (c *Client) SubmitAdoption(ctx context.Context, req client.AdoptionRequest) (client.SubmitResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/adoptions", submitRequest{
		ItemID:        req.ItemID,
		RequesterName: req.RequesterName,
		Income:        req.RequesterIncome,
	})
	if err != nil {
		return client.SubmitResponse{}, err
	}

	var reply submitReply
	if err := json.Unmarshal(resp.body, &reply); err != nil {
		return client.SubmitResponse{}, fmt.Errorf("failed to decode adoption reply (status %d): %w", resp.status, err)
	}

	if resp.status != http.StatusOK || reply.Error != "" {
		msg := reply.Error
		if msg == "" {
			msg = http.StatusText(resp.status)
		}
		return client.SubmitResponse{Status: client.StatusError, Error: msg}, nil
	}

	out := client.SubmitResponse{Status: reply.Status}
	if reply.Result != nil {
		out.Approved = reply.Result.Approved
		out.Reason = reply.Result.Reason
	}
	return out, nil
}

type notificationReply struct {
	ID      string `json:"id"`
	Title   string `json:"titulo"`
	Message string `json:"mensaje"`
	Kind    string `json:"tipo"`
	Date    string `json:"fecha"`
}

// FetchNotifications implements client.Remote.
func (c *Client) FetchNotifications(ctx context.Context) ([]client.Notification, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("fetch notifications: unexpected status %d", resp.status)
	}

	var replies []notificationReply
	if err := json.Unmarshal(resp.body, &replies); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	out := make([]client.Notification, 0, len(replies))
	for _, r := range replies {
		kind, err := notifdomain.ParseKind(r.Kind)
		if err != nil {
			kind = notifdomain.KindInfo
		}
		n := client.Notification{
			ID:      r.ID,
			Kind:    kind,
			Title:   r.Title,
			Message: r.Message,
		}
		if ts, err := time.ParseInLocation(dateLayout, r.Date, time.Local); err == nil {
			n.Timestamp = ts
		}
		out = append(out, n)
	}
	return out, nil
}

// ClearNotifications implements client.Remote.
func (c *Client) ClearNotifications(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/notifications/clear", nil)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK {
		return fmt.Errorf("clear notifications: %s", errorMessage(resp))
	}
	return nil
}

// Reset purges the broker queues and the server history.
func (c *Client) Reset(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/admin/reset", nil)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("reset: %s", errorMessage(resp))
	}
	var reply struct {
		Message string `json:"mensaje"`
	}
	if err := json.Unmarshal(resp.body, &reply); err != nil {
		return "", fmt.Errorf("failed to decode reset reply: %w", err)
	}
	return reply.Message, nil
}

// Health returns the server's health report.
func (c *Client) Health(ctx context.Context) (observability.OverallHealth, error) {
	var health observability.OverallHealth
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return health, err
	}
	if err := json.Unmarshal(resp.body, &health); err != nil {
		return health, fmt.Errorf("failed to decode health report: %w", err)
	}
	return health, nil
}

func errorMessage(resp response) string {
	var reply struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.body, &reply); err == nil && reply.Error != "" {
		return reply.Error
	}
	return fmt.Sprintf("unexpected status %d", resp.status)
}
