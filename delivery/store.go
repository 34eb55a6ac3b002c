package delivery

import (
	"context"

	"github.com/fairlx/fanout/id"
)

// Store defines the persistence contract for the delivery log.
type Store interface {
	// AppendDelivery appends one attempt record. Records are immutable.
	AppendDelivery(ctx context.Context, d *Delivery) error

	// ListRecentDeliveries returns the newest-first page of attempts for a
	// webhook.
	ListRecentDeliveries(ctx context.Context, webhookID id.ID, limit int) ([]*Delivery, error)

	// CountDeliveries returns the number of records with the given status.
	CountDeliveries(ctx context.Context, status Status) (int64, error)
}
