// Package webhook manages webhook registrations: per-project delivery
// targets with a subscribed event set, an optional signing secret, and an
// enabled flag honored by the dispatcher.
package webhook

import (
	"time"

	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
)

// Webhook is a registered delivery target owned by a project.
type Webhook struct {
	entity.Entity

	// ID is the unique TypeID for this webhook.
	ID id.ID `json:"id"`

	// ProjectID is the owning project's identifier in the host application.
	ProjectID string `json:"project_id"`

	// CreatedBy is the user who registered the webhook.
	CreatedBy string `json:"created_by"`

	// Name is the admin-facing display name.
	Name string `json:"name"`

	// URL is the delivery target. Must pass the private-network exclusion
	// check at registration and update time; it is not re-checked at
	// delivery time.
	URL string `json:"url"`

	// Secret is the optional HMAC signing secret. Never serialized.
	Secret string `json:"-"`

	// Events is the non-empty set of subscribed event types.
	Events []event.Type `json:"events"`

	// Enabled indicates whether the webhook receives deliveries.
	Enabled bool `json:"enabled"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit,omitempty"`

	// LastTriggeredAt is bumped on every delivery attempt, success or not.
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
}

// Subscribed reports whether the webhook's event set contains t.
func (w *Webhook) Subscribed(t event.Type) bool {
	for _, e := range w.Events {
		if e == t {
			return true
		}
	}
	return false
}

// ListOpts configures pagination for webhook listing.
type ListOpts struct {
	Offset int
	Limit  int
}
