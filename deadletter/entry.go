// Package deadletter records deliveries whose retry budget is exhausted.
//
// The retry queue itself is not durable; a dead letter entry is the lasting
// trace of a permanently failed delivery and the handle operators use to
// replay it once the receiving endpoint is fixed.
package deadletter

import (
	"time"

	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
)

// Entry is one permanently failed delivery.
type Entry struct {
	entity.Entity

	// ID is the unique TypeID for this entry.
	ID id.ID `json:"id"`

	// WebhookID references the target registration.
	WebhookID id.ID `json:"webhook_id"`

	// ProjectID is the owning project, for operator-facing filtering.
	ProjectID string `json:"project_id"`

	// Event is the event type that failed to deliver.
	Event event.Type `json:"event"`

	// Payload is the serialized body from the failed attempts.
	Payload []byte `json:"payload"`

	// Error is the response body or network error from the final attempt.
	Error string `json:"error"`

	// LastStatusCode is the HTTP status from the final attempt, 0 on
	// network failure.
	LastStatusCode int `json:"last_status_code,omitempty"`

	// AttemptCount is the total number of attempts made.
	AttemptCount int `json:"attempt_count"`

	// FailedAt is when the delivery permanently failed.
	FailedAt time.Time `json:"failed_at"`
}

// ListOpts configures filtering and pagination for dead letter listing.
type ListOpts struct {
	Offset    int
	Limit     int
	ProjectID string
	WebhookID *id.ID
	From      *time.Time
	To        *time.Time
}
