// Package ratelimit provides per-webhook token bucket rate limiting.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter tracks one token bucket per webhook. Buckets are created lazily
// on first use and sized to the webhook's configured rate.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
	rate     float64 // tokens per second; burst size equals the rate
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether a delivery to the webhook may proceed now.
// A rate of 0 or less means unlimited.
func (l *Limiter) Allow(webhookID string, rate int) bool {
	if rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[webhookID]
	if !ok {
		b = &bucket{tokens: float64(rate), lastFill: time.Now(), rate: float64(rate)}
		l.buckets[webhookID] = b
	}
	b.refill()

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Wait blocks until the rate limit admits the delivery or the context is
// cancelled. A rate of 0 or less returns immediately.
func (l *Limiter) Wait(ctx context.Context, webhookID string, rate int) error {
	if rate <= 0 {
		return nil
	}

	for {
		if l.Allow(webhookID, rate) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(float64(time.Second) / float64(rate))):
		}
	}
}

// Forget drops the bucket for a webhook, e.g. after deletion.
func (l *Limiter) Forget(webhookID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, webhookID)
}

func (b *bucket) refill() {
	now := time.Now()
	b.tokens += now.Sub(b.lastFill).Seconds() * b.rate
	if b.tokens > b.rate {
		b.tokens = b.rate
	}
	b.lastFill = now
}
