package fanout

import "errors"

// Sentinel errors returned by fanout operations.
var (
	// ErrNoStore is returned when a Dispatcher is created without a store.
	ErrNoStore = errors.New("fanout: store is required")

	// ErrWebhookNotFound is returned when a webhook registration cannot be found.
	ErrWebhookNotFound = errors.New("fanout: webhook not found")

	// ErrProjectNotFound is returned when project metadata cannot be found.
	ErrProjectNotFound = errors.New("fanout: project not found")

	// ErrDeliveryNotFound is returned when a delivery record cannot be found.
	ErrDeliveryNotFound = errors.New("fanout: delivery not found")

	// ErrDeadLetterNotFound is returned when a dead letter entry cannot be found.
	ErrDeadLetterNotFound = errors.New("fanout: dead letter not found")

	// ErrWebhookDisabled is returned when an operation targets a disabled webhook.
	ErrWebhookDisabled = errors.New("fanout: webhook is disabled")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("fanout: store is closed")
)
