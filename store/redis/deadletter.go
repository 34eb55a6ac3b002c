package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
)

// deadLetterModel is the JSON representation stored in Redis.
type deadLetterModel struct {
	ID             string    `json:"id"`
	WebhookID      string    `json:"webhook_id"`
	ProjectID      string    `json:"project_id"`
	Event          string    `json:"event"`
	Payload        []byte    `json:"payload"`
	Error          string    `json:"error"`
	LastStatusCode int       `json:"last_status_code,omitempty"`
	AttemptCount   int       `json:"attempt_count"`
	FailedAt       time.Time `json:"failed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toDeadLetterModel(e *deadletter.Entry) *deadLetterModel {
	return &deadLetterModel{
		ID:             e.ID.String(),
		WebhookID:      e.WebhookID.String(),
		ProjectID:      e.ProjectID,
		Event:          string(e.Event),
		Payload:        e.Payload,
		Error:          e.Error,
		LastStatusCode: e.LastStatusCode,
		AttemptCount:   e.AttemptCount,
		FailedAt:       e.FailedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromDeadLetterModel(m *deadLetterModel) (*deadletter.Entry, error) {
	dlID, err := id.ParseDeadLetterID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse dead letter ID %q: %w", m.ID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}
	return &deadletter.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             dlID,
		WebhookID:      whID,
		ProjectID:      m.ProjectID,
		Event:          event.Type(m.Event),
		Payload:        m.Payload,
		Error:          m.Error,
		LastStatusCode: m.LastStatusCode,
		AttemptCount:   m.AttemptCount,
		FailedAt:       m.FailedAt,
	}, nil
}

func (s *Store) PushDeadLetter(ctx context.Context, e *deadletter.Entry) error {
	m := toDeadLetterModel(e)
	key := entityKey(prefixDeadLetter, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("fanout/redis: push dead letter: %w", err)
	}

	score := scoreFromTime(m.FailedAt)
	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zDLQAll, goredis.Z{Score: score, Member: m.ID})
	pipe.ZAdd(ctx, zDLQProject+m.ProjectID, goredis.Z{Score: score, Member: m.ID})
	pipe.ZAdd(ctx, zDLQWebhook+m.WebhookID, goredis.Z{Score: score, Member: m.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fanout/redis: push dead letter indexes: %w", err)
	}
	return nil
}

func (s *Store) GetDeadLetter(ctx context.Context, dlID id.ID) (*deadletter.Entry, error) {
	var m deadLetterModel
	if err := s.getEntity(ctx, entityKey(prefixDeadLetter, dlID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, fanout.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("fanout/redis: get dead letter: %w", err)
	}
	return fromDeadLetterModel(&m)
}

func (s *Store) ListDeadLetters(ctx context.Context, opts deadletter.ListOpts) ([]*deadletter.Entry, error) {
	// Pick the narrowest index the filter allows; the time window maps onto
	// the score range.
	indexKey := zDLQAll
	switch {
	case opts.WebhookID != nil:
		indexKey = zDLQWebhook + opts.WebhookID.String()
	case opts.ProjectID != "":
		indexKey = zDLQProject + opts.ProjectID
	}

	minScore, maxScore := "-inf", "+inf"
	if opts.From != nil {
		minScore = strconv.FormatFloat(scoreFromTime(*opts.From), 'f', -1, 64)
	}
	if opts.To != nil {
		maxScore = strconv.FormatFloat(scoreFromTime(*opts.To), 'f', -1, 64)
	}

	ids, err := s.rdb.ZRevRangeByScore(ctx, indexKey, &goredis.ZRangeBy{
		Min: minScore,
		Max: maxScore,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("fanout/redis: list dead letters index: %w", err)
	}

	result := make([]*deadletter.Entry, 0, len(ids))
	for _, dlID := range ids {
		var m deadLetterModel
		if err := s.getEntity(ctx, entityKey(prefixDeadLetter, dlID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, fmt.Errorf("fanout/redis: list dead letters: %w", err)
		}
		// The project filter can narrow a webhook-indexed listing further.
		if opts.ProjectID != "" && m.ProjectID != opts.ProjectID {
			continue
		}
		e, err := fromDeadLetterModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

func (s *Store) DeleteDeadLetter(ctx context.Context, dlID id.ID) error {
	key := entityKey(prefixDeadLetter, dlID.String())

	var m deadLetterModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isRedisNil(err) {
			return fanout.ErrDeadLetterNotFound
		}
		return fmt.Errorf("fanout/redis: delete dead letter get: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, key)
	pipe.ZRem(ctx, zDLQAll, m.ID)
	pipe.ZRem(ctx, zDLQProject+m.ProjectID, m.ID)
	pipe.ZRem(ctx, zDLQWebhook+m.WebhookID, m.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fanout/redis: delete dead letter: %w", err)
	}
	return nil
}

func (s *Store) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	maxScore := strconv.FormatFloat(scoreFromTime(before), 'f', -1, 64)
	ids, err := s.rdb.ZRangeByScore(ctx, zDLQAll, &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + maxScore,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("fanout/redis: purge dead letters index: %w", err)
	}

	var count int64
	for _, dlID := range ids {
		parsed, err := id.ParseDeadLetterID(dlID)
		if err != nil {
			return count, fmt.Errorf("parse dead letter ID %q: %w", dlID, err)
		}
		if err := s.DeleteDeadLetter(ctx, parsed); err != nil {
			if errors.Is(err, fanout.ErrDeadLetterNotFound) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Store) CountDeadLetters(ctx context.Context) (int64, error) {
	count, err := s.rdb.ZCard(ctx, zDLQAll).Result()
	if err != nil {
		return 0, fmt.Errorf("fanout/redis: count dead letters: %w", err)
	}
	return count, nil
}
