// Package redis implements store.Store on Redis. Entities are stored as JSON
// values; listing order comes from sorted set indexes scored by time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	fanoutstore "github.com/fairlx/fanout/store"
)

// compile-time interface check
var _ fanoutstore.Store = (*Store)(nil)

// Store implements store.Store using Redis.
type Store struct {
	rdb goredis.UniversalClient
}

// New creates a new Redis store over an existing client.
func New(rdb goredis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// Migrate is a no-op for Redis (no schema migrations needed).
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// scoreFromTime converts a time.Time to a sorted set score (unix seconds as float64).
func scoreFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// isRedisNil checks if an error is a Redis nil (key not found).
func isRedisNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// getEntity retrieves and decodes a JSON entity from a key.
func (s *Store) getEntity(ctx context.Context, key string, dest any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// setEntity encodes and stores a JSON entity under a key.
func (s *Store) setEntity(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("fanout/redis: marshal entity: %w", err)
	}
	return s.rdb.Set(ctx, key, raw, 0).Err()
}

// applyPagination applies offset and limit to a slice.
func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
