package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	adoptiondomain "github.com/felixgeelhaar/petconnect/internal/adoption/domain"
	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
	"github.com/felixgeelhaar/petconnect/pkg/observability"
)

// Outcome summarises how a RequestAdoption call ended.
type Outcome int

const (
	OutcomeApproved Outcome = iota
	OutcomeRejected
	OutcomeCancelled
	OutcomeInvalid
	OutcomeDuplicate
	OutcomeFailed
	// OutcomeIgnored means the item was already adopted.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFailed:
		return "failed"
	case OutcomeIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the outcome of one adoption attempt.
type Result struct {
	ItemID  string
	Outcome Outcome
	Err     error
}

// Messages shown in local notifications.
const (
	MsgCancelled       = "Request cancelled"
	MsgIncomeCancelled = "Request cancelled - income not provided"
	MsgInvalidIncome   = "Income must be a valid number"
	MsgUnreachable     = "Could not reach the adoption server. Check that the server and RabbitMQ are running."
)

var errMissingDecision = errors.New("response carries no decision")

// Orchestrator runs one adoption attempt end to end.
type Orchestrator struct {
	guard    *Guard
	buttons  *Buttons
	feed     *Feed
	remote   Remote
	prompter Prompter
	cooldown time.Duration
	logger   *slog.Logger
}

// NewOrchestrator wires the orchestrator to its collaborators.
func NewOrchestrator(
	guard *Guard,
	buttons *Buttons,
	feed *Feed,
	remote Remote,
	prompter Prompter,
	cooldown time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		guard:    guard,
		buttons:  buttons,
		feed:     feed,
		remote:   remote,
		prompter: prompter,
		cooldown: cooldown,
		logger:   observability.OrDefault(logger).With("component", "orchestrator"),
	}
}

// RequestAdoption asks the user for their details, submits the request and
// updates the button and feed with the result.
func (o *Orchestrator) RequestAdoption(ctx context.Context, itemID string) Result {
	logger := o.logger.With(observability.ItemIDKey, itemID)
	name := adoptiondomain.DisplayName(itemID)

	if o.buttons.State(itemID) == ButtonApproved {
		return Result{ItemID: itemID, Outcome: OutcomeIgnored}
	}
	if o.guard.Held(itemID) {
		return o.duplicate(itemID, name)
	}

	requester, ok := o.prompt(ctx, PromptRequest{
		Field:   PromptName,
		Message: fmt.Sprintf("Enter your full name to adopt %s:", name),
	})
	if !ok {
		o.notify(notifdomain.KindInfo, MsgCancelled)
		return Result{ItemID: itemID, Outcome: OutcomeCancelled, Err: &ValidationError{Field: "name", Cancelled: true}}
	}

	rawIncome, ok := o.prompt(ctx, PromptRequest{
		Field:   PromptIncome,
		Message: "Enter your monthly income (numbers only):",
	})
	if !ok {
		o.notify(notifdomain.KindInfo, MsgIncomeCancelled)
		return Result{ItemID: itemID, Outcome: OutcomeCancelled, Err: &ValidationError{Field: "income", Cancelled: true}}
	}
	income, err := adoptiondomain.ParseIncome(rawIncome)
	if err != nil {
		o.notify(notifdomain.KindError, MsgInvalidIncome)
		return Result{ItemID: itemID, Outcome: OutcomeInvalid, Err: &ValidationError{Field: "income", Err: err}}
	}

	lease, acquired := o.guard.TryAcquire(itemID)
	if !acquired {
		return o.duplicate(itemID, name)
	}
	defer o.guard.ReleaseAfter(lease, o.cooldown)

	if err := o.buttons.StartProcessing(itemID); err != nil {
		return Result{ItemID: itemID, Outcome: OutcomeIgnored, Err: err}
	}

	logger.InfoContext(ctx, "submitting adoption request")
	resp, err := o.remote.SubmitAdoption(ctx, AdoptionRequest{
		ItemID:          itemID,
		RequesterName:   requester,
		RequesterIncome: income,
	})
	if err != nil {
		return o.fail(ctx, logger, itemID, MsgUnreachable, &TransportError{Op: "submit adoption", Err: err})
	}
	if resp.Status != StatusSuccess || resp.Error != "" {
		msg := resp.Error
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %q", resp.Status)
		}
		return o.fail(ctx, logger, itemID, "Server error: "+msg, &ApplicationError{Message: msg})
	}
	if resp.Approved == nil {
		return o.fail(ctx, logger, itemID, MsgUnreachable, &TransportError{Op: "decode response", Err: errMissingDecision})
	}

	result := Result{ItemID: itemID, Outcome: OutcomeRejected}
	if *resp.Approved {
		result.Outcome = OutcomeApproved
		err = o.buttons.Approve(itemID)
	} else {
		err = o.buttons.Reject(itemID)
	}
	if err != nil {
		logger.WarnContext(ctx, "button transition failed", observability.ErrorKey, err)
	}
	logger.InfoContext(ctx, "adoption request settled", "outcome", result.Outcome.String())

	_ = o.feed.Refresh(ctx)
	return result
}

// Clear empties the server notification history.
func (o *Orchestrator) Clear(ctx context.Context) error {
	return o.feed.Clear(ctx)
}

func (o *Orchestrator) prompt(ctx context.Context, req PromptRequest) (string, bool) {
	resp, err := o.prompter.Prompt(ctx, req)
	if err != nil {
		o.logger.DebugContext(ctx, "prompt aborted", "field", string(req.Field), observability.ErrorKey, err)
		return "", false
	}
	value := strings.TrimSpace(resp.Value)
	if resp.Cancelled || value == "" {
		return "", false
	}
	return value, true
}

func (o *Orchestrator) duplicate(itemID, name string) Result {
	o.notify(notifdomain.KindWarning, "Already processing adoption for "+name)
	return Result{ItemID: itemID, Outcome: OutcomeDuplicate, Err: &DuplicateRequestError{ItemID: itemID}}
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, itemID, message string, err error) Result {
	logger.ErrorContext(ctx, "adoption request failed", observability.ErrorKey, err)
	o.notify(notifdomain.KindError, message)
	if resetErr := o.buttons.Reset(itemID); resetErr != nil {
		logger.WarnContext(ctx, "button reset failed", observability.ErrorKey, resetErr)
	}
	return Result{ItemID: itemID, Outcome: OutcomeFailed, Err: err}
}

func (o *Orchestrator) notify(kind notifdomain.Kind, message string) {
	o.feed.AddLocal(Notification{
		Kind:    kind,
		Title:   strings.ToUpper(string(kind)),
		Message: message,
	})
}
