// Package bunstore implements store.Store on the Bun ORM. It works with both
// the Postgres and SQLite dialects; the composition root chooses the driver.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/delivery"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/project"
	fanoutstore "github.com/fairlx/fanout/store"
	"github.com/fairlx/fanout/webhook"
)

// compile-time interface check
var _ fanoutstore.Store = (*Store)(nil)

// Store implements store.Store using the Bun ORM.
type Store struct {
	db *bun.DB
}

// New creates a new Bun-backed store.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying Bun database for direct access.
func (s *Store) DB() *bun.DB { return s.db }

// Migrate creates the required tables using Bun's CreateTable.
func (s *Store) Migrate(ctx context.Context) error {
	models := []any{
		(*webhookModel)(nil),
		(*projectModel)(nil),
		(*deliveryModel)(nil),
		(*deadLetterModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	// Create indexes.
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_fanout_webhooks_project ON fanout_webhooks (project_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_fanout_deliveries_webhook ON fanout_deliveries (webhook_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_fanout_deliveries_status ON fanout_deliveries (status)",
		"CREATE INDEX IF NOT EXISTS idx_fanout_dead_letters_project ON fanout_dead_letters (project_id)",
		"CREATE INDEX IF NOT EXISTS idx_fanout_dead_letters_failed ON fanout_dead_letters (failed_at)",
	}
	for _, ddl := range indexes {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Webhook Store ====================

func (s *Store) CreateWebhook(ctx context.Context, w *webhook.Webhook) error {
	m, err := toWebhookModel(w)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (s *Store) GetWebhook(ctx context.Context, whID id.ID) (*webhook.Webhook, error) {
	m := new(webhookModel)
	err := s.db.NewSelect().
		Model(m).
		Where("id = ?", whID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fanout.ErrWebhookNotFound
		}
		return nil, err
	}
	return fromWebhookModel(m)
}

func (s *Store) UpdateWebhook(ctx context.Context, w *webhook.Webhook) error {
	m, err := toWebhookModel(w)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model(m).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fanout.ErrWebhookNotFound
	}
	return nil
}

func (s *Store) DeleteWebhook(ctx context.Context, whID id.ID) error {
	res, err := s.db.NewDelete().
		Model((*webhookModel)(nil)).
		Where("id = ?", whID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fanout.ErrWebhookNotFound
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context, projectID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	var models []webhookModel
	q := s.db.NewSelect().Model(&models).Where("project_id = ?", projectID)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.Order("created_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*webhook.Webhook, len(models))
	for i := range models {
		w, err := fromWebhookModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = w
	}
	return result, nil
}

func (s *Store) ListEnabledWebhooks(ctx context.Context, projectID string) ([]*webhook.Webhook, error) {
	var models []webhookModel
	if err := s.db.NewSelect().
		Model(&models).
		Where("project_id = ?", projectID).
		Where("enabled = ?", true).
		Order("created_at DESC").
		Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*webhook.Webhook, len(models))
	for i := range models {
		w, err := fromWebhookModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = w
	}
	return result, nil
}

func (s *Store) SetEnabled(ctx context.Context, whID id.ID, enabled bool) error {
	now := time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model((*webhookModel)(nil)).
		Set("enabled = ?", enabled).
		Set("updated_at = ?", now).
		Where("id = ?", whID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fanout.ErrWebhookNotFound
	}
	return nil
}

func (s *Store) TouchWebhook(ctx context.Context, whID id.ID, at time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*webhookModel)(nil)).
		Set("last_triggered_at = ?", at).
		Where("id = ?", whID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fanout.ErrWebhookNotFound
	}
	return nil
}

// ==================== Project Store ====================

func (s *Store) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	m := new(projectModel)
	err := s.db.NewSelect().
		Model(m).
		Where("id = ?", projectID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fanout.ErrProjectNotFound
		}
		return nil, err
	}
	return fromProjectModel(m), nil
}

func (s *Store) UpsertProject(ctx context.Context, p *project.Project) error {
	m := toProjectModel(p)
	_, err := s.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("image_url = EXCLUDED.image_url").
		Exec(ctx)
	return err
}

// ==================== Delivery Store ====================

func (s *Store) AppendDelivery(ctx context.Context, d *delivery.Delivery) error {
	m := toDeliveryModel(d)
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (s *Store) ListRecentDeliveries(ctx context.Context, webhookID id.ID, limit int) ([]*delivery.Delivery, error) {
	var models []deliveryModel
	q := s.db.NewSelect().
		Model(&models).
		Where("webhook_id = ?", webhookID.String()).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*delivery.Delivery, len(models))
	for i := range models {
		d, err := fromDeliveryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

func (s *Store) CountDeliveries(ctx context.Context, status delivery.Status) (int64, error) {
	count, err := s.db.NewSelect().
		Model((*deliveryModel)(nil)).
		Where("status = ?", string(status)).
		Count(ctx)
	return int64(count), err
}

// ==================== Dead Letter Store ====================

func (s *Store) PushDeadLetter(ctx context.Context, e *deadletter.Entry) error {
	m := toDeadLetterModel(e)
	_, err := s.db.NewInsert().Model(m).Exec(ctx)
	return err
}

func (s *Store) GetDeadLetter(ctx context.Context, dlID id.ID) (*deadletter.Entry, error) {
	m := new(deadLetterModel)
	err := s.db.NewSelect().
		Model(m).
		Where("id = ?", dlID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fanout.ErrDeadLetterNotFound
		}
		return nil, err
	}
	return fromDeadLetterModel(m)
}

func (s *Store) ListDeadLetters(ctx context.Context, opts deadletter.ListOpts) ([]*deadletter.Entry, error) {
	var models []deadLetterModel
	q := s.db.NewSelect().Model(&models)

	if opts.ProjectID != "" {
		q = q.Where("project_id = ?", opts.ProjectID)
	}
	if opts.WebhookID != nil {
		q = q.Where("webhook_id = ?", opts.WebhookID.String())
	}
	if opts.From != nil {
		q = q.Where("failed_at >= ?", *opts.From)
	}
	if opts.To != nil {
		q = q.Where("failed_at <= ?", *opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.Order("failed_at DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*deadletter.Entry, len(models))
	for i := range models {
		e, err := fromDeadLetterModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) DeleteDeadLetter(ctx context.Context, dlID id.ID) error {
	res, err := s.db.NewDelete().
		Model((*deadLetterModel)(nil)).
		Where("id = ?", dlID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fanout.ErrDeadLetterNotFound
	}
	return nil
}

func (s *Store) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*deadLetterModel)(nil)).
		Where("failed_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CountDeadLetters(ctx context.Context) (int64, error) {
	count, err := s.db.NewSelect().
		Model((*deadLetterModel)(nil)).
		Count(ctx)
	return int64(count), err
}
