package webhook

import (
	"context"
	"time"

	"github.com/fairlx/fanout/id"
)

// Store defines the persistence contract for webhook registrations.
type Store interface {
	// CreateWebhook persists a new registration.
	CreateWebhook(ctx context.Context, w *Webhook) error

	// GetWebhook returns a registration by ID.
	GetWebhook(ctx context.Context, whID id.ID) (*Webhook, error)

	// UpdateWebhook replaces an existing registration.
	UpdateWebhook(ctx context.Context, w *Webhook) error

	// DeleteWebhook removes a registration. The delivery log is not
	// cascade-deleted; log rows may reference a dangling webhook ID.
	DeleteWebhook(ctx context.Context, whID id.ID) error

	// ListWebhooks returns a project's registrations, newest first.
	ListWebhooks(ctx context.Context, projectID string, opts ListOpts) ([]*Webhook, error)

	// ListEnabledWebhooks returns only registrations with Enabled == true,
	// newest first. This is the dispatch hot path.
	ListEnabledWebhooks(ctx context.Context, projectID string) ([]*Webhook, error)

	// SetEnabled flips the enabled flag without touching other fields.
	SetEnabled(ctx context.Context, whID id.ID, enabled bool) error

	// TouchWebhook sets LastTriggeredAt. Called by the delivery log façade
	// after every appended attempt.
	TouchWebhook(ctx context.Context, whID id.ID, at time.Time) error
}
