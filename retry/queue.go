// Package retry holds failed-but-retryable delivery attempts and re-drives
// them on a timer with exponential backoff.
//
// The queue is in-process and not durable: a restart drops all pending
// tasks. Dead letter records are the durable trace of exhausted retries.
package retry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
)

// Outcome is the result of one retry attempt, reported by the attempt
// callback so the queue can decide scheduling without exception-style
// control flow.
type Outcome int

const (
	// Delivered means the retry succeeded; the task is dropped.
	Delivered Outcome = iota

	// Resolved means the task no longer applies because the webhook was
	// disabled after enqueue. Disabling is an operator action, not a
	// failure: the task is dropped without a permanent-failure report.
	Resolved

	// Failed means the retry failed and consumed an attempt.
	Failed

	// Terminal means the retry hit a non-retryable condition (a 4xx
	// response). The task is reported as permanently failed immediately,
	// regardless of remaining attempt budget.
	Terminal
)

// Task is one pending retry. Tasks live only in process memory.
type Task struct {
	WebhookID id.ID
	ProjectID string
	Event     event.Type
	Payload   []byte

	// Attempt is the number of delivery attempts made so far, including
	// the initial one. The queue increments it before each retry.
	Attempt int

	LastAttemptAt time.Time
	NextAttemptAt time.Time

	// LastError and LastStatusCode describe the most recent failure. The
	// attempt callback keeps them current so the permanent-failure report
	// reflects the final attempt.
	LastError      string
	LastStatusCode int
}

// AttemptFunc re-attempts delivery for a due task. Implementations must
// re-fetch the webhook registration to honor live enable/disable state.
type AttemptFunc func(ctx context.Context, t *Task) Outcome

// FailedFunc is notified exactly once when a task exhausts its attempts.
type FailedFunc func(ctx context.Context, t *Task)

// Config holds the queue's scheduling constants.
type Config struct {
	// MaxAttempts is the total attempt budget per task, including the
	// initial delivery made by the dispatcher.
	MaxAttempts int

	// BaseDelay is the backoff unit: the nth attempt is rescheduled
	// 2^n * BaseDelay after it fails.
	BaseDelay time.Duration

	// PollInterval is how often the queue checks for due tasks.
	PollInterval time.Duration
}

// DefaultConfig returns the production defaults: three total attempts,
// 5 second base delay, 10 second poll interval.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		BaseDelay:    5 * time.Second,
		PollInterval: 10 * time.Second,
	}
}

// Queue is the in-memory retry queue. The task list is guarded by a mutex;
// attempts run outside the lock.
type Queue struct {
	attempt  AttemptFunc
	onFailed FailedFunc
	config   Config
	logger   *slog.Logger

	mu    sync.Mutex
	tasks []*Task

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a retry queue. onFailed may be nil.
func NewQueue(attempt AttemptFunc, onFailed FailedFunc, cfg Config, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Queue{
		attempt:  attempt,
		onFailed: onFailed,
		config:   cfg,
		logger:   logger,
	}
}

// Add enqueues a task after a failed first attempt. The next attempt is
// scheduled 2^attempt * BaseDelay from now.
func (q *Queue) Add(t *Task) {
	now := time.Now().UTC()
	if t.Attempt == 0 {
		t.Attempt = 1
	}
	t.LastAttemptAt = now
	t.NextAttemptAt = now.Add(q.delay(t.Attempt))

	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Start begins the poll loop.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.pollLoop(ctx)
	}()
}

// Stop cancels the poll loop and waits for an in-flight tick to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *Queue) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.processDue(ctx, time.Now().UTC())
		}
	}
}

// processDue partitions the task list into due and not-yet-due, then runs
// each due task through the attempt callback. The lock is released while
// attempts run; tasks that must be rescheduled are re-added afterwards.
func (q *Queue) processDue(ctx context.Context, now time.Time) {
	q.mu.Lock()
	var due, pending []*Task
	for _, t := range q.tasks {
		if !t.NextAttemptAt.After(now) {
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	q.tasks = pending
	q.mu.Unlock()

	for _, t := range due {
		t.Attempt++
		t.LastAttemptAt = now

		switch q.attempt(ctx, t) {
		case Delivered:
			q.logger.DebugContext(ctx, "retry delivered",
				"webhook_id", t.WebhookID, "event", t.Event, "attempt", t.Attempt)

		case Resolved:
			q.logger.DebugContext(ctx, "retry resolved, webhook disabled",
				"webhook_id", t.WebhookID, "event", t.Event)

		case Terminal:
			q.logger.WarnContext(ctx, "delivery terminally failed",
				"webhook_id", t.WebhookID, "event", t.Event, "status", t.LastStatusCode)
			if q.onFailed != nil {
				q.onFailed(ctx, t)
			}

		case Failed:
			if t.Attempt >= q.config.MaxAttempts {
				q.logger.WarnContext(ctx, "delivery permanently failed",
					"webhook_id", t.WebhookID, "event", t.Event, "attempts", t.Attempt)
				if q.onFailed != nil {
					q.onFailed(ctx, t)
				}
				continue
			}

			t.NextAttemptAt = now.Add(q.delay(t.Attempt))
			q.mu.Lock()
			q.tasks = append(q.tasks, t)
			q.mu.Unlock()
			q.logger.DebugContext(ctx, "retry rescheduled",
				"webhook_id", t.WebhookID, "attempt", t.Attempt, "next_at", t.NextAttemptAt)
		}
	}
}

// delay returns 2^attempt * BaseDelay. Successive delays strictly grow, so
// the gap between attempts is monotonically increasing.
func (q *Queue) delay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * q.config.BaseDelay
}
