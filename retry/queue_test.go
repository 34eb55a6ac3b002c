package retry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
)

func testConfig() Config {
	return Config{
		MaxAttempts:  3,
		BaseDelay:    10 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}
}

func newTask() *Task {
	return &Task{
		WebhookID: id.NewWebhookID(),
		ProjectID: "proj-1",
		Event:     event.TaskCreated,
		Payload:   []byte(`{"event":"TASK_CREATED"}`),
		Attempt:   1,
	}
}

func TestAddSchedulesWithBackoff(t *testing.T) {
	q := NewQueue(func(context.Context, *Task) Outcome { return Delivered }, nil, testConfig(), nil)

	task := newTask()
	before := time.Now().UTC()
	q.Add(task)

	if q.Len() != 1 {
		t.Fatalf("len = %d, want 1", q.Len())
	}
	// First retry lands 2^1 * BaseDelay after the failed initial attempt.
	wantDelay := 2 * testConfig().BaseDelay
	got := task.NextAttemptAt.Sub(before)
	if got < wantDelay || got > wantDelay+50*time.Millisecond {
		t.Errorf("next attempt delay = %v, want about %v", got, wantDelay)
	}
}

func TestDelayGrowsMonotonically(t *testing.T) {
	q := NewQueue(nil, nil, testConfig(), nil)

	prev := time.Duration(0)
	for attempt := 1; attempt <= 5; attempt++ {
		d := q.delay(attempt)
		if d <= prev {
			t.Fatalf("delay(%d) = %v, not greater than delay(%d) = %v", attempt, d, attempt-1, prev)
		}
		prev = d
	}

	if q.delay(1) != 2*testConfig().BaseDelay {
		t.Errorf("delay(1) = %v", q.delay(1))
	}
	if q.delay(2) != 4*testConfig().BaseDelay {
		t.Errorf("delay(2) = %v", q.delay(2))
	}
}

func TestProcessDueSkipsPending(t *testing.T) {
	var attempts int
	q := NewQueue(func(context.Context, *Task) Outcome {
		attempts++
		return Delivered
	}, nil, testConfig(), nil)

	due := newTask()
	pending := newTask()
	q.Add(due)
	q.Add(pending)

	// Only one task is due.
	now := time.Now().UTC()
	due.NextAttemptAt = now.Add(-time.Millisecond)
	pending.NextAttemptAt = now.Add(time.Hour)

	q.processDue(context.Background(), now)

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if q.Len() != 1 {
		t.Errorf("len = %d, want 1 pending task retained", q.Len())
	}
}

func TestDeliveredDropsTask(t *testing.T) {
	q := NewQueue(func(context.Context, *Task) Outcome { return Delivered }, nil, testConfig(), nil)

	task := newTask()
	q.Add(task)
	task.NextAttemptAt = time.Now().UTC().Add(-time.Millisecond)

	q.processDue(context.Background(), time.Now().UTC())

	if q.Len() != 0 {
		t.Errorf("delivered task should be dropped, len = %d", q.Len())
	}
	if task.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", task.Attempt)
	}
}

func TestResolvedDropsWithoutFailure(t *testing.T) {
	var failed bool
	q := NewQueue(
		func(context.Context, *Task) Outcome { return Resolved },
		func(context.Context, *Task) { failed = true },
		testConfig(), nil)

	task := newTask()
	q.Add(task)
	task.NextAttemptAt = time.Now().UTC().Add(-time.Millisecond)

	q.processDue(context.Background(), time.Now().UTC())

	if q.Len() != 0 {
		t.Error("resolved task should be dropped")
	}
	if failed {
		t.Error("resolved tasks must not be reported as failed")
	}
}

func TestFailedReschedulesUntilExhausted(t *testing.T) {
	var failures []*Task
	q := NewQueue(
		func(context.Context, *Task) Outcome { return Failed },
		func(_ context.Context, task *Task) { failures = append(failures, task) },
		testConfig(), nil)

	task := newTask()
	q.Add(task) // attempt 1 already made by the dispatcher

	// Attempt 2: rescheduled.
	task.NextAttemptAt = time.Now().UTC().Add(-time.Millisecond)
	q.processDue(context.Background(), time.Now().UTC())
	if q.Len() != 1 {
		t.Fatalf("after attempt 2: len = %d, want 1", q.Len())
	}
	if len(failures) != 0 {
		t.Fatal("failure reported before the budget ran out")
	}

	// Attempt 3: budget exhausted.
	task.NextAttemptAt = time.Now().UTC().Add(-time.Millisecond)
	q.processDue(context.Background(), time.Now().UTC())
	if q.Len() != 0 {
		t.Errorf("exhausted task should be dropped, len = %d", q.Len())
	}
	if len(failures) != 1 {
		t.Fatalf("onFailed called %d times, want exactly once", len(failures))
	}
	if failures[0].Attempt != 3 {
		t.Errorf("final attempt = %d, want 3", failures[0].Attempt)
	}
}

func TestTerminalFailsImmediately(t *testing.T) {
	var failures int
	q := NewQueue(
		func(context.Context, *Task) Outcome { return Terminal },
		func(context.Context, *Task) { failures++ },
		testConfig(), nil)

	task := newTask()
	q.Add(task)
	task.NextAttemptAt = time.Now().UTC().Add(-time.Millisecond)

	q.processDue(context.Background(), time.Now().UTC())

	if q.Len() != 0 {
		t.Error("terminal task should be dropped")
	}
	if failures != 1 {
		t.Errorf("onFailed called %d times, want 1 despite remaining budget", failures)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	var mu sync.Mutex
	var attempts int
	q := NewQueue(func(context.Context, *Task) Outcome {
		mu.Lock()
		attempts++
		mu.Unlock()
		return Delivered
	}, nil, Config{
		MaxAttempts:  3,
		BaseDelay:    time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}, nil)

	q.Add(newTask())

	q.Start(context.Background())

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		done := attempts > 0
		mu.Unlock()
		if done || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	if attempts == 0 {
		t.Error("poll loop never ran the due task")
	}
	if q.Len() != 0 {
		t.Errorf("len = %d after delivery", q.Len())
	}
}
