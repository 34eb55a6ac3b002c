package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairlx/fanout/delivery"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
)

// deliveryModel is the JSON representation stored in Redis.
type deliveryModel struct {
	ID           string    `json:"id"`
	WebhookID    string    `json:"webhook_id"`
	Event        string    `json:"event"`
	Payload      []byte    `json:"payload"`
	Status       string    `json:"status"`
	ResponseCode int       `json:"response_code,omitempty"`
	ResponseBody string    `json:"response_body,omitempty"`
	Attempt      int       `json:"attempt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toDeliveryModel(d *delivery.Delivery) *deliveryModel {
	return &deliveryModel{
		ID:           d.ID.String(),
		WebhookID:    d.WebhookID.String(),
		Event:        string(d.Event),
		Payload:      d.Payload,
		Status:       string(d.Status),
		ResponseCode: d.ResponseCode,
		ResponseBody: d.ResponseBody,
		Attempt:      d.Attempt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func fromDeliveryModel(m *deliveryModel) (*delivery.Delivery, error) {
	delID, err := id.ParseDeliveryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse delivery ID %q: %w", m.ID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}
	return &delivery.Delivery{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           delID,
		WebhookID:    whID,
		Event:        event.Type(m.Event),
		Payload:      m.Payload,
		Status:       delivery.Status(m.Status),
		ResponseCode: m.ResponseCode,
		ResponseBody: m.ResponseBody,
		Attempt:      m.Attempt,
	}, nil
}

func (s *Store) AppendDelivery(ctx context.Context, d *delivery.Delivery) error {
	m := toDeliveryModel(d)
	key := entityKey(prefixDelivery, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("fanout/redis: append delivery: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zDeliveryWh+m.WebhookID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	pipe.Incr(ctx, statusCounterKey(m.Status))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fanout/redis: append delivery indexes: %w", err)
	}
	return nil
}

func (s *Store) ListRecentDeliveries(ctx context.Context, webhookID id.ID, limit int) ([]*delivery.Delivery, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.rdb.ZRevRange(ctx, zDeliveryWh+webhookID.String(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("fanout/redis: list deliveries index: %w", err)
	}

	result := make([]*delivery.Delivery, 0, len(ids))
	for _, delID := range ids {
		var m deliveryModel
		if err := s.getEntity(ctx, entityKey(prefixDelivery, delID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, fmt.Errorf("fanout/redis: list deliveries: %w", err)
		}
		d, err := fromDeliveryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

func (s *Store) CountDeliveries(ctx context.Context, status delivery.Status) (int64, error) {
	count, err := s.rdb.Get(ctx, statusCounterKey(string(status))).Int64()
	if err != nil {
		if isRedisNil(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("fanout/redis: count deliveries: %w", err)
	}
	return count, nil
}
