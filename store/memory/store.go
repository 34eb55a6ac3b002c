// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fairlx/fanout"
	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/delivery"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/project"
	fanoutstore "github.com/fairlx/fanout/store"
	"github.com/fairlx/fanout/webhook"
)

// compile-time interface check.
var _ fanoutstore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	webhooks    map[string]*webhook.Webhook  // keyed by ID string
	projects    map[string]*project.Project  // keyed by project ID
	deliveries  []*delivery.Delivery         // append-only, insertion order
	deadLetters map[string]*deadletter.Entry // keyed by ID string

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		webhooks:    make(map[string]*webhook.Webhook),
		projects:    make(map[string]*project.Project),
		deadLetters: make(map[string]*deadletter.Entry),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fanout.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// webhook.Store
// ──────────────────────────────────────────────────

// CreateWebhook persists a new registration.
func (s *Store) CreateWebhook(_ context.Context, w *webhook.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.webhooks[w.ID.String()] = copyWebhook(w)
	return nil
}

// GetWebhook returns a copy of the registration by ID.
func (s *Store) GetWebhook(_ context.Context, whID id.ID) (*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.webhooks[whID.String()]
	if !ok {
		return nil, fanout.ErrWebhookNotFound
	}
	return copyWebhook(w), nil
}

// UpdateWebhook replaces an existing registration.
func (s *Store) UpdateWebhook(_ context.Context, w *webhook.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[w.ID.String()]; !ok {
		return fanout.ErrWebhookNotFound
	}
	w.UpdatedAt = time.Now().UTC()
	s.webhooks[w.ID.String()] = copyWebhook(w)
	return nil
}

// DeleteWebhook removes a registration. Delivery log rows are kept.
func (s *Store) DeleteWebhook(_ context.Context, whID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[whID.String()]; !ok {
		return fanout.ErrWebhookNotFound
	}
	delete(s.webhooks, whID.String())
	return nil
}

// ListWebhooks returns a project's registrations, newest first.
func (s *Store) ListWebhooks(_ context.Context, projectID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*webhook.Webhook, 0, len(s.webhooks))
	for _, w := range s.webhooks {
		if w.ProjectID != projectID {
			continue
		}
		result = append(result, copyWebhook(w))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// ListEnabledWebhooks returns only enabled registrations, newest first.
func (s *Store) ListEnabledWebhooks(_ context.Context, projectID string) ([]*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*webhook.Webhook
	for _, w := range s.webhooks {
		if w.ProjectID != projectID || !w.Enabled {
			continue
		}
		result = append(result, copyWebhook(w))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// SetEnabled flips the enabled flag.
func (s *Store) SetEnabled(_ context.Context, whID id.ID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[whID.String()]
	if !ok {
		return fanout.ErrWebhookNotFound
	}
	w.Enabled = enabled
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// TouchWebhook sets LastTriggeredAt.
func (s *Store) TouchWebhook(_ context.Context, whID id.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[whID.String()]
	if !ok {
		return fanout.ErrWebhookNotFound
	}
	w.LastTriggeredAt = &at
	return nil
}

// ──────────────────────────────────────────────────
// project.Store
// ──────────────────────────────────────────────────

// GetProject returns project metadata by ID.
func (s *Store) GetProject(_ context.Context, projectID string) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, fanout.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

// UpsertProject creates or replaces the metadata snapshot.
func (s *Store) UpsertProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

// AppendDelivery appends one attempt record.
func (s *Store) AppendDelivery(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	s.deliveries = append(s.deliveries, &cp)
	return nil
}

// ListRecentDeliveries returns the newest-first page of attempts for a webhook.
func (s *Store) ListRecentDeliveries(_ context.Context, webhookID id.ID, limit int) ([]*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*delivery.Delivery
	// Walk backwards: the slice is append-only, so insertion order is
	// chronological.
	for i := len(s.deliveries) - 1; i >= 0; i-- {
		d := s.deliveries[i]
		if d.WebhookID.String() != webhookID.String() {
			continue
		}
		cp := *d
		result = append(result, &cp)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// CountDeliveries returns the number of records with the given status.
func (s *Store) CountDeliveries(_ context.Context, status delivery.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, d := range s.deliveries {
		if d.Status == status {
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// deadletter.Store
// ──────────────────────────────────────────────────

// PushDeadLetter persists a permanently failed delivery.
func (s *Store) PushDeadLetter(_ context.Context, e *deadletter.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.deadLetters[e.ID.String()] = &cp
	return nil
}

// GetDeadLetter returns an entry by ID.
func (s *Store) GetDeadLetter(_ context.Context, dlID id.ID) (*deadletter.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.deadLetters[dlID.String()]
	if !ok {
		return nil, fanout.ErrDeadLetterNotFound
	}
	cp := *e
	return &cp, nil
}

// ListDeadLetters returns entries newest-failure-first, optionally filtered.
func (s *Store) ListDeadLetters(_ context.Context, opts deadletter.ListOpts) ([]*deadletter.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*deadletter.Entry, 0, len(s.deadLetters))
	for _, e := range s.deadLetters {
		if opts.ProjectID != "" && e.ProjectID != opts.ProjectID {
			continue
		}
		if opts.WebhookID != nil && e.WebhookID.String() != opts.WebhookID.String() {
			continue
		}
		if opts.From != nil && e.FailedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && e.FailedAt.After(*opts.To) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FailedAt.After(result[j].FailedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// DeleteDeadLetter removes an entry.
func (s *Store) DeleteDeadLetter(_ context.Context, dlID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deadLetters[dlID.String()]; !ok {
		return fanout.ErrDeadLetterNotFound
	}
	delete(s.deadLetters, dlID.String())
	return nil
}

// PurgeDeadLetters deletes entries that failed before the threshold.
func (s *Store) PurgeDeadLetters(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for k, e := range s.deadLetters {
		if e.FailedAt.Before(before) {
			delete(s.deadLetters, k)
			count++
		}
	}
	return count, nil
}

// CountDeadLetters returns the total number of entries.
func (s *Store) CountDeadLetters(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.deadLetters)), nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// copyWebhook returns a copy with its own events slice, so callers can
// mutate without holding the lock.
func copyWebhook(w *webhook.Webhook) *webhook.Webhook {
	cp := *w
	cp.Events = append([]event.Type(nil), w.Events...)
	return &cp
}

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
