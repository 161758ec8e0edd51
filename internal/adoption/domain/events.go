package domain

import (
	shareddomain "github.com/felixgeelhaar/petconnect/internal/shared/domain"
)

// AggregateType names adoption requests in event envelopes.
const AggregateType = "adoption_request"

// Routing keys. Each has its own queue.
const (
	RoutingKeyRequested = "adoption.request.submitted"
	RoutingKeyDecided   = "adoption.request.decided"
)

// AdoptionRequested is published once a request has been accepted for processing.
type AdoptionRequested struct {
	shareddomain.BaseEvent
	ItemID    string `json:"mascota_id"`
	Requester string `json:"usuario"`
	Income    int64  `json:"salario"`
}

// NewAdoptionRequested creates the event for req.
func NewAdoptionRequested(req Request) *AdoptionRequested {
	return &AdoptionRequested{
		BaseEvent: shareddomain.NewBaseEventAt(req.ID, AggregateType, RoutingKeyRequested, req.SubmittedAt),
		ItemID:    req.ItemID,
		Requester: req.RequesterName,
		Income:    req.Income,
	}
}

// AdoptionDecided is published with the evaluation result.
type AdoptionDecided struct {
	shareddomain.BaseEvent
	ItemID    string  `json:"mascota_id"`
	Requester string  `json:"usuario"`
	Income    int64   `json:"salario"`
	Verdict   Verdict `json:"resultado"`
	Approved  bool    `json:"aprobado"`
	Reason    string  `json:"motivo"`
}

// NewAdoptionDecided creates the event for d.
func NewAdoptionDecided(d Decision) *AdoptionDecided {
	return &AdoptionDecided{
		BaseEvent: shareddomain.NewBaseEventAt(d.Request.ID, AggregateType, RoutingKeyDecided, d.DecidedAt),
		ItemID:    d.Request.ItemID,
		Requester: d.Request.RequesterName,
		Income:    d.Request.Income,
		Verdict:   d.Verdict,
		Approved:  d.Approved(),
		Reason:    d.Reason,
	}
}
