package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/webhook"
)

// Log is the façade over the two effects every attempt produces: appending
// the immutable log record and bumping the webhook's LastTriggeredAt. The
// two store calls run sequentially; callers observe them as one operation,
// but each is independently testable. True atomicity is not required.
type Log struct {
	deliveries Store
	webhooks   webhook.Store
	logger     *slog.Logger
}

// NewLog creates the delivery log façade.
func NewLog(deliveries Store, webhooks webhook.Store, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		deliveries: deliveries,
		webhooks:   webhooks,
		logger:     logger,
	}
}

// Record appends the attempt and touches the parent webhook. The touch is
// best-effort: a failure there is logged but does not fail the append, so
// the audit trail never loses an attempt over timestamp bookkeeping.
func (l *Log) Record(ctx context.Context, d *Delivery) error {
	if d.Attempt == 0 {
		d.Attempt = 1
	}

	if err := l.deliveries.AppendDelivery(ctx, d); err != nil {
		return err
	}

	if err := l.webhooks.TouchWebhook(ctx, d.WebhookID, time.Now().UTC()); err != nil {
		l.logger.WarnContext(ctx, "touch webhook failed",
			"webhook_id", d.WebhookID, "error", err)
	}

	return nil
}

// Recent returns the newest-first delivery history page for a webhook.
// A non-positive limit defaults to 10.
func (l *Log) Recent(ctx context.Context, webhookID id.ID, limit int) ([]*Delivery, error) {
	if limit <= 0 {
		limit = 10
	}
	return l.deliveries.ListRecentDeliveries(ctx, webhookID, limit)
}
