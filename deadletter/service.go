package deadletter

import (
	"context"
	"log/slog"
	"time"

	"github.com/fairlx/fanout/id"
)

// RedeliverFunc re-enters the dispatcher's delivery primitive for a replayed
// entry, starting a fresh attempt cycle.
type RedeliverFunc func(ctx context.Context, e *Entry) error

// Service manages the dead letter log.
type Service struct {
	store     Store
	redeliver RedeliverFunc
	logger    *slog.Logger
}

// NewService creates a dead letter service. redeliver may be nil, in which
// case Replay only removes the entry.
func NewService(store Store, redeliver RedeliverFunc, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		redeliver: redeliver,
		logger:    logger,
	}
}

// Push persists an entry.
func (svc *Service) Push(ctx context.Context, e *Entry) error {
	return svc.store.PushDeadLetter(ctx, e)
}

// Get returns an entry by ID.
func (svc *Service) Get(ctx context.Context, dlID id.ID) (*Entry, error) {
	return svc.store.GetDeadLetter(ctx, dlID)
}

// List returns entries matching the given options.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	return svc.store.ListDeadLetters(ctx, opts)
}

// Replay re-delivers a dead letter as a fresh attempt cycle and removes the
// entry. A replay that fails again re-enters the normal retry path and may
// produce a new entry.
func (svc *Service) Replay(ctx context.Context, dlID id.ID) error {
	e, err := svc.store.GetDeadLetter(ctx, dlID)
	if err != nil {
		return err
	}

	if svc.redeliver != nil {
		if err := svc.redeliver(ctx, e); err != nil {
			return err
		}
	}

	return svc.store.DeleteDeadLetter(ctx, dlID)
}

// Purge removes entries that failed before the threshold.
func (svc *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	return svc.store.PurgeDeadLetters(ctx, before)
}

// Count returns the total number of entries.
func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.store.CountDeadLetters(ctx)
}
