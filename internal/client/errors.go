package client

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for a button transition the state machine forbids.
var ErrInvalidTransition = errors.New("invalid button transition")

// ValidationError means the user's input was missing or unusable. No request was sent.
type ValidationError struct {
	Field     string
	Cancelled bool
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("%s not provided", e.Field)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError means a collaborator call failed or its reply was unreadable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError is an error reported by the server in its reply.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return "server error: " + e.Message
}

// DuplicateRequestError means a request for the item is already in flight.
type DuplicateRequestError struct {
	ItemID string
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("adoption for %s already in progress", e.ItemID)
}
