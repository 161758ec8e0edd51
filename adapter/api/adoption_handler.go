package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/petconnect/internal/adoption/application/commands"
	"github.com/felixgeelhaar/petconnect/internal/adoption/application/queries"
	"github.com/felixgeelhaar/petconnect/internal/adoption/domain"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// Wire layouts for notification times.
const (
	clockLayout = "15:04:05"
	dateLayout  = "2006-01-02 15:04:05"
)

// amount accepts a JSON number or string and keeps its text.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = amount(n.String())
	return nil
}

type submitAdoptionRequest struct {
	ItemID        string  `json:"mascota_id"`
	RequesterName string  `json:"usuario_nombre"`
	Income        *amount `json:"usuario_salario"`
}

type decisionResponse struct {
	Approved bool   `json:"aprobado"`
	Verdict  string `json:"resultado"`
	ItemID   string `json:"mascota_id"`
	Reason   string `json:"motivo"`
	Income   int64  `json:"salario_usuario"`
}

type submitAdoptionResponse struct {
	Status string           `json:"estado"`
	Result decisionResponse `json:"resultado"`
}

type statusResponse struct {
	Status  string `json:"estado"`
	Message string `json:"mensaje"`
}

type notificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"titulo"`
	Message   string `json:"mensaje"`
	Kind      string `json:"tipo"`
	Icon      string `json:"icono"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"fecha"`
}

// AdoptionHandler handles adoption and notification requests.
type AdoptionHandler struct {
	submit            *commands.SubmitAdoptionHandler
	clear             *commands.ClearNotificationsHandler
	reset             *commands.ResetHandler
	listNotifications *queries.ListNotificationsHandler
	logger            *slog.Logger
}

// AdoptionHandlerConfig holds dependencies for the adoption handler.
type AdoptionHandlerConfig struct {
	Submit            *commands.SubmitAdoptionHandler
	Clear             *commands.ClearNotificationsHandler
	Reset             *commands.ResetHandler
	ListNotifications *queries.ListNotificationsHandler
	Logger            *slog.Logger
}

// NewAdoptionHandler creates a new adoption handler.
func NewAdoptionHandler(cfg AdoptionHandlerConfig) *AdoptionHandler {
	return &AdoptionHandler{
		submit:            cfg.Submit,
		clear:             cfg.Clear,
		reset:             cfg.Reset,
		listNotifications: cfg.ListNotifications,
		logger:            observability.OrDefault(cfg.Logger),
	}
}

// SubmitAdoption handles POST /api/v1/adoptions
func (h *AdoptionHandler) SubmitAdoption(w http.ResponseWriter, r *http.Request) {
	var req submitAdoptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeError(w, http.StatusBadRequest, "No pet specified")
		return
	}

	income := "0"
	if req.Income != nil {
		income = string(*req.Income)
	}

	result, err := h.submit.Handle(r.Context(), commands.SubmitAdoptionCommand{
		ItemID:        req.ItemID,
		RequesterName: req.RequesterName,
		Income:        income,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingItemID):
			writeError(w, http.StatusBadRequest, "No pet specified")
		case errors.Is(err, domain.ErrInvalidIncome), errors.Is(err, domain.ErrNegativeIncome):
			writeError(w, http.StatusBadRequest, "Income must be a valid number")
		case errors.Is(err, commands.ErrBrokerUnavailable):
			h.logger.ErrorContext(r.Context(), "adoption request not queued", observability.ErrorKey, err)
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "failed to process adoption request", observability.ErrorKey, err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, submitAdoptionResponse{
		Status: "success",
		Result: decisionResponse{
			Approved: result.Approved,
			Verdict:  string(result.Verdict),
			ItemID:   result.ItemID,
			Reason:   result.Reason,
			Income:   result.Income,
		},
	})
}

// ListNotifications handles GET /api/v1/notifications
func (h *AdoptionHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit %q", raw))
			return
		}
		limit = n
	}

	items, err := h.listNotifications.Handle(r.Context(), queries.ListNotificationsQuery{Limit: limit})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list notifications", observability.ErrorKey, err)
		writeError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	resp := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		local := n.Timestamp.Local()
		resp = append(resp, notificationResponse{
			ID:        n.ID.String(),
			Title:     n.Title,
			Message:   n.Message,
			Kind:      n.Kind,
			Icon:      n.Icon,
			Timestamp: local.Format(clockLayout),
			Date:      local.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearNotifications handles POST /api/v1/notifications/clear
func (h *AdoptionHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.clear.Handle(r.Context(), commands.ClearNotificationsCommand{}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to clear notifications", observability.ErrorKey, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Notifications cleared"})
}

// Reset handles POST /api/v1/admin/reset
func (h *AdoptionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	result, err := h.reset.Handle(r.Context(), commands.ResetCommand{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: result.Message})
}
