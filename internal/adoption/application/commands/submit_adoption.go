package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/felixgeelhaar/petconnect/internal/adoption/domain"
	notifapp "github.com/felixgeelhaar/petconnect/internal/notifications/application"
	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	sharedApplication "github.com/felixgeelhaar/petconnect/internal/shared/application"
	shareddomain "github.com/felixgeelhaar/petconnect/internal/shared/domain"
	"github.com/felixgeelhaar/petconnect/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// EventSource tags events published by the server.
const EventSource = "petconnect-server"

// ErrBrokerUnavailable is returned when the request could not be queued.
var ErrBrokerUnavailable = errors.New("could not send to RabbitMQ")

// SubmitAdoptionCommand carries one adoption request as received on the wire.
type SubmitAdoptionCommand struct {
	ItemID        string
	RequesterName string
	// Income is the raw amount; decimals are truncated.
	Income string
}

// SubmitAdoptionResult is the evaluated request.
type SubmitAdoptionResult struct {
	RequestID uuid.UUID
	ItemID    string
	Requester string
	Income    int64
	Verdict   domain.Verdict
	Approved  bool
	Reason    string
}

// SubmitAdoptionConfig tunes the handler.
type SubmitAdoptionConfig struct {
	// ProcessingDelay is waited twice: before and after the processing notice.
	ProcessingDelay time.Duration
	MinIncome       int64
}

// SubmitAdoptionHandler runs the full request lifecycle: sent notice,
// request event, processing notice, evaluation, decision event and result
// notice.
type SubmitAdoptionHandler struct {
	recorder  *notifapp.Recorder
	publisher eventbus.Publisher
	evaluator domain.Evaluator
	delay     time.Duration
	clock     clock.Clock
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewSubmitAdoptionHandler creates a new SubmitAdoptionHandler.
func NewSubmitAdoptionHandler(
	recorder *notifapp.Recorder,
	publisher eventbus.Publisher,
	cfg SubmitAdoptionConfig,
	clk clock.Clock,
	logger *slog.Logger,
	metrics observability.Metrics,
) *SubmitAdoptionHandler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &SubmitAdoptionHandler{
		recorder:  recorder,
		publisher: publisher,
		evaluator: domain.NewEvaluator(cfg.MinIncome),
		delay:     cfg.ProcessingDelay,
		clock:     clk,
		logger:    observability.OrDefault(logger),
		metrics:   metrics,
	}
}

// Handle executes the SubmitAdoptionCommand.
func (h *SubmitAdoptionHandler) Handle(ctx context.Context, cmd SubmitAdoptionCommand) (*SubmitAdoptionResult, error) {
	if strings.TrimSpace(cmd.ItemID) == "" {
		return nil, domain.ErrMissingItemID
	}

	income, err := domain.ParseAmount(cmd.Income)
	if err != nil {
		h.recordError(ctx, "Income must be a valid number")
		return nil, domain.ErrInvalidIncome
	}

	req, err := domain.NewRequest(cmd.ItemID, cmd.RequesterName, income, h.clock.Now())
	if err != nil {
		h.recordError(ctx, fmt.Sprintf("Error processing request: %v", err))
		return nil, err
	}

	logger := h.logger.With(observability.ItemIDKey, req.ItemID, "adoption_id", req.ID)
	logger.InfoContext(ctx, "adoption request received",
		"requester", req.RequesterName,
		"income", domain.FormatIncome(req.Income),
	)
	h.metrics.Counter(observability.MetricAdoptionsSubmitted, 1)

	if _, err := h.recorder.Record(ctx, notifdomain.KindSent, "REQUEST SENT",
		fmt.Sprintf("Request sent for %s - Requester: %s - Income: %s",
			req.ItemID, req.RequesterName, domain.FormatIncome(req.Income))); err != nil {
		return nil, err
	}

	if err := h.publish(ctx, domain.NewAdoptionRequested(*req)); err != nil {
		logger.ErrorContext(ctx, "failed to queue adoption request", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	if err := h.wait(ctx); err != nil {
		return nil, err
	}
	if _, err := h.recorder.Record(ctx, notifdomain.KindProcessing, "PROCESSING REQUEST",
		fmt.Sprintf("Validating request from %s for %s - checking income...", req.RequesterName, req.ItemID)); err != nil {
		return nil, err
	}
	if err := h.wait(ctx); err != nil {
		return nil, err
	}

	decision, _ := observability.TimeOperationResult(ctx, logger, h.metrics, "evaluate_adoption",
		func() (domain.Decision, error) {
			return h.evaluator.Evaluate(*req, h.clock.Now()), nil
		})
	h.metrics.Counter(observability.MetricAdoptionsDecided, 1, observability.T("verdict", string(decision.Verdict)))
	logger.InfoContext(ctx, "adoption request decided",
		"verdict", decision.Verdict,
		"reason", decision.Reason,
	)

	// The result notice is only shown once the decision is on the results queue.
	if err := h.publish(ctx, domain.NewAdoptionDecided(decision)); err != nil {
		logger.WarnContext(ctx, "failed to publish decision", "error", err)
	} else {
		kind := notifdomain.KindError
		if decision.Approved() {
			kind = notifdomain.KindResponse
		}
		if _, err := h.recorder.Record(ctx, kind, "FINAL RESULT",
			fmt.Sprintf("%s → %s | Reason: %s", req.ItemID, decision.Verdict, decision.Reason)); err != nil {
			return nil, err
		}
	}

	return &SubmitAdoptionResult{
		RequestID: req.ID,
		ItemID:    req.ItemID,
		Requester: req.RequesterName,
		Income:    req.Income,
		Verdict:   decision.Verdict,
		Approved:  decision.Approved(),
		Reason:    decision.Reason,
	}, nil
}

func (h *SubmitAdoptionHandler) publish(ctx context.Context, event shareddomain.DomainEvent) error {
	sharedApplication.ApplyEventMetadata([]shareddomain.DomainEvent{event}, sharedApplication.NewEventMetadata(ctx, EventSource))
	if err := eventbus.PublishEvent(ctx, h.publisher, event); err != nil {
		return err
	}
	h.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey()))
	return nil
}

// wait pauses for the processing delay unless ctx ends first.
func (h *SubmitAdoptionHandler) wait(ctx context.Context) error {
	if h.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.clock.After(h.delay):
		return nil
	}
}

func (h *SubmitAdoptionHandler) recordError(ctx context.Context, message string) {
	if _, err := h.recorder.Record(ctx, notifdomain.KindError, "ERROR", message); err != nil {
		h.logger.ErrorContext(ctx, "failed to record error notification", "error", err)
	}
}
