package webhook

import "github.com/fairlx/fanout/event"

// Input is the creation/update payload for webhook registrations.
// On update, zero-valued fields are left unchanged (partial update).
type Input struct {
	// ProjectID is the owning project. Required on create, immutable after.
	ProjectID string `json:"project_id"`

	// CreatedBy is the registering user. Required on create.
	CreatedBy string `json:"created_by"`

	// Name is the display name.
	Name string `json:"name"`

	// URL is the delivery target.
	URL string `json:"url"`

	// Secret is the optional HMAC signing secret.
	Secret string `json:"secret,omitempty"`

	// Events is the subscribed event set. Must be non-empty on create.
	Events []event.Type `json:"events"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit,omitempty"`
}
