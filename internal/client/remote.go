package client

import (
	"context"
	"time"

	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
)

// Reply statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AdoptionRequest is what the user submits for one item.
type AdoptionRequest struct {
	ItemID          string
	RequesterName   string
	RequesterIncome int64
}

// SubmitResponse is the server's reply to a submission. Approved is nil when
// the reply carried no decision.
type SubmitResponse struct {
	Status   string
	Approved *bool
	Reason   string
	Error    string
}

// Notification is one feed entry's content.
type Notification struct {
	ID        string
	Kind      notifdomain.Kind
	Title     string
	Message   string
	Timestamp time.Time
}

// Remote is the adoption server as seen by the client.
type Remote interface {
	SubmitAdoption(ctx context.Context, req AdoptionRequest) (SubmitResponse, error)
	// FetchNotifications returns the server history, newest first.
	FetchNotifications(ctx context.Context) ([]Notification, error)
	ClearNotifications(ctx context.Context) error
}
