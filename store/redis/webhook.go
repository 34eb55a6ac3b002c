package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
	"github.com/fairlx/fanout/webhook"
)

// webhookModel is the JSON representation stored in Redis.
type webhookModel struct {
	ID              string       `json:"id"`
	ProjectID       string       `json:"project_id"`
	CreatedBy       string       `json:"created_by,omitempty"`
	Name            string       `json:"name"`
	URL             string       `json:"url"`
	Secret          string       `json:"secret,omitempty"`
	Events          []event.Type `json:"events"`
	Enabled         bool         `json:"enabled"`
	RateLimit       int          `json:"rate_limit,omitempty"`
	LastTriggeredAt *time.Time   `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func toWebhookModel(w *webhook.Webhook) *webhookModel {
	return &webhookModel{
		ID:              w.ID.String(),
		ProjectID:       w.ProjectID,
		CreatedBy:       w.CreatedBy,
		Name:            w.Name,
		URL:             w.URL,
		Secret:          w.Secret,
		Events:          w.Events,
		Enabled:         w.Enabled,
		RateLimit:       w.RateLimit,
		LastTriggeredAt: w.LastTriggeredAt,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

func fromWebhookModel(m *webhookModel) (*webhook.Webhook, error) {
	whID, err := id.ParseWebhookID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.ID, err)
	}
	return &webhook.Webhook{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              whID,
		ProjectID:       m.ProjectID,
		CreatedBy:       m.CreatedBy,
		Name:            m.Name,
		URL:             m.URL,
		Secret:          m.Secret,
		Events:          m.Events,
		Enabled:         m.Enabled,
		RateLimit:       m.RateLimit,
		LastTriggeredAt: m.LastTriggeredAt,
	}, nil
}

func (s *Store) CreateWebhook(ctx context.Context, w *webhook.Webhook) error {
	m := toWebhookModel(w)
	key := entityKey(prefixWebhook, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("fanout/redis: create webhook: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zWebhookProject+m.ProjectID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	if m.Enabled {
		pipe.SAdd(ctx, enabledSetKey(m.ProjectID), m.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fanout/redis: create webhook indexes: %w", err)
	}
	return nil
}

func (s *Store) GetWebhook(ctx context.Context, whID id.ID) (*webhook.Webhook, error) {
	var m webhookModel
	if err := s.getEntity(ctx, entityKey(prefixWebhook, whID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, fanout.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("fanout/redis: get webhook: %w", err)
	}
	return fromWebhookModel(&m)
}

func (s *Store) UpdateWebhook(ctx context.Context, w *webhook.Webhook) error {
	key := entityKey(prefixWebhook, w.ID.String())

	var existing webhookModel
	if err := s.getEntity(ctx, key, &existing); err != nil {
		if isRedisNil(err) {
			return fanout.ErrWebhookNotFound
		}
		return fmt.Errorf("fanout/redis: update webhook get: %w", err)
	}

	m := toWebhookModel(w)
	m.UpdatedAt = now()

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("fanout/redis: update webhook: %w", err)
	}

	if existing.Enabled != m.Enabled {
		if m.Enabled {
			return s.rdb.SAdd(ctx, enabledSetKey(m.ProjectID), m.ID).Err()
		}
		return s.rdb.SRem(ctx, enabledSetKey(m.ProjectID), m.ID).Err()
	}
	return nil
}

func (s *Store) DeleteWebhook(ctx context.Context, whID id.ID) error {
	key := entityKey(prefixWebhook, whID.String())

	var m webhookModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isRedisNil(err) {
			return fanout.ErrWebhookNotFound
		}
		return fmt.Errorf("fanout/redis: delete webhook get: %w", err)
	}

	// Delivery history keys are kept; log rows may reference a deleted
	// webhook.
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, key)
	pipe.ZRem(ctx, zWebhookProject+m.ProjectID, m.ID)
	pipe.SRem(ctx, enabledSetKey(m.ProjectID), m.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fanout/redis: delete webhook: %w", err)
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context, projectID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	// Newest first: reverse range over the creation-time index.
	ids, err := s.rdb.ZRevRange(ctx, zWebhookProject+projectID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("fanout/redis: list webhooks index: %w", err)
	}

	result := make([]*webhook.Webhook, 0, len(ids))
	for _, whID := range ids {
		var m webhookModel
		if err := s.getEntity(ctx, entityKey(prefixWebhook, whID), &m); err != nil {
			if isRedisNil(err) {
				continue // index entry outlived the entity
			}
			return nil, fmt.Errorf("fanout/redis: list webhooks: %w", err)
		}
		w, err := fromWebhookModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

func (s *Store) ListEnabledWebhooks(ctx context.Context, projectID string) ([]*webhook.Webhook, error) {
	all, err := s.ListWebhooks(ctx, projectID, webhook.ListOpts{})
	if err != nil {
		return nil, err
	}

	result := all[:0:0]
	for _, w := range all {
		if w.Enabled {
			result = append(result, w)
		}
	}
	return result, nil
}

func (s *Store) SetEnabled(ctx context.Context, whID id.ID, enabled bool) error {
	key := entityKey(prefixWebhook, whID.String())

	var m webhookModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isRedisNil(err) {
			return fanout.ErrWebhookNotFound
		}
		return fmt.Errorf("fanout/redis: set enabled get: %w", err)
	}

	m.Enabled = enabled
	m.UpdatedAt = now()
	if err := s.setEntity(ctx, key, &m); err != nil {
		return fmt.Errorf("fanout/redis: set enabled: %w", err)
	}

	if enabled {
		return s.rdb.SAdd(ctx, enabledSetKey(m.ProjectID), m.ID).Err()
	}
	return s.rdb.SRem(ctx, enabledSetKey(m.ProjectID), m.ID).Err()
}

func (s *Store) TouchWebhook(ctx context.Context, whID id.ID, at time.Time) error {
	key := entityKey(prefixWebhook, whID.String())

	var m webhookModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isRedisNil(err) {
			return fanout.ErrWebhookNotFound
		}
		return fmt.Errorf("fanout/redis: touch webhook get: %w", err)
	}

	m.LastTriggeredAt = &at
	if err := s.setEntity(ctx, key, &m); err != nil {
		return fmt.Errorf("fanout/redis: touch webhook: %w", err)
	}
	return nil
}
