package deadletter

import (
	"context"
	"time"

	"github.com/fairlx/fanout/id"
)

// Store defines the persistence contract for dead letters.
type Store interface {
	// PushDeadLetter persists a permanently failed delivery.
	PushDeadLetter(ctx context.Context, e *Entry) error

	// GetDeadLetter returns an entry by ID.
	GetDeadLetter(ctx context.Context, dlID id.ID) (*Entry, error)

	// ListDeadLetters returns entries newest-failure-first, optionally
	// filtered.
	ListDeadLetters(ctx context.Context, opts ListOpts) ([]*Entry, error)

	// DeleteDeadLetter removes an entry, e.g. after a replay.
	DeleteDeadLetter(ctx context.Context, dlID id.ID) error

	// PurgeDeadLetters deletes entries that failed before the threshold.
	PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error)

	// CountDeadLetters returns the total number of entries.
	CountDeadLetters(ctx context.Context) (int64, error)
}
