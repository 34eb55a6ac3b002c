// Package delivery performs and records single-recipient webhook deliveries.
//
// Every HTTP attempt, initial or retry, appends exactly one Delivery
// record. Records are never mutated or deleted; retention is out of scope.
package delivery

import (
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
)

// Status classifies the outcome of one delivery attempt.
type Status string

const (
	// StatusSuccess indicates the endpoint responded with a 2xx status.
	StatusSuccess Status = "SUCCESS"

	// StatusFailed indicates a non-2xx response or a network failure.
	StatusFailed Status = "FAILED"
)

// Delivery is the append-only log record for one delivery attempt.
type Delivery struct {
	entity.Entity

	// ID is the unique TypeID for this attempt. It is also the value of
	// the per-delivery unique id header sent to the receiver.
	ID id.ID `json:"id"`

	// WebhookID references the registration this attempt belongs to. It
	// may dangle after the webhook is deleted; the log is an audit trail.
	WebhookID id.ID `json:"webhook_id"`

	// Event is the event type delivered.
	Event event.Type `json:"event"`

	// Payload is the exact serialized body that was sent.
	Payload []byte `json:"payload"`

	// Status is SUCCESS or FAILED.
	Status Status `json:"status"`

	// ResponseCode is the HTTP status code, 0 on network failure.
	ResponseCode int `json:"response_code,omitempty"`

	// ResponseBody is the response body capped at 1000 characters. On a
	// network failure it holds the error message text instead.
	ResponseBody string `json:"response_body,omitempty"`

	// Attempt is the 1-based attempt number this record represents.
	Attempt int `json:"attempt"`
}
