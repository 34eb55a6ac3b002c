package fanout

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fairlx/fanout/deadletter"
	"github.com/fairlx/fanout/delivery"
	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/internal/entity"
	"github.com/fairlx/fanout/observability"
	"github.com/fairlx/fanout/project"
	"github.com/fairlx/fanout/ratelimit"
	"github.com/fairlx/fanout/retry"
	"github.com/fairlx/fanout/store"
	"github.com/fairlx/fanout/webhook"
)

// Dispatcher is the root webhook fan-out engine.
type Dispatcher struct {
	config     Config
	store      store.Store
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
	tracer     *observability.Tracer

	webhookSvc *webhook.Service
	dlSvc      *deadletter.Service
	sender     *delivery.Sender
	log        *delivery.Log
	queue      *retry.Queue
	limiter    *ratelimit.Limiter
}

// New creates a new Dispatcher with the given options.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.store == nil {
		return nil, ErrNoStore
	}
	d.wireServices()
	return d, nil
}

// wireServices initializes the internal services after options have been applied.
func (d *Dispatcher) wireServices() {
	d.webhookSvc = webhook.NewService(d.store, d.logger)

	if d.httpClient != nil {
		d.sender = delivery.NewSenderWithClient(d.httpClient)
	} else {
		d.sender = delivery.NewSender(d.config.RequestTimeout)
	}

	d.log = delivery.NewLog(d.store, d.store, d.logger)
	d.limiter = ratelimit.New()

	d.queue = retry.NewQueue(d.retryAttempt, d.retryExhausted, retry.Config{
		MaxAttempts:  d.config.MaxAttempts,
		BaseDelay:    d.config.BaseDelay,
		PollInterval: d.config.PollInterval,
	}, d.logger)

	d.dlSvc = deadletter.NewService(d.store, d.redeliver, d.logger)

	if d.metrics != nil {
		d.metrics.TrackPendingRetries(func() float64 {
			return float64(d.queue.Len())
		})
	}
}

// Start begins the retry queue poll loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop shuts down the retry queue and waits for an in-flight tick.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch fans an event out to every enabled webhook of the project that
// subscribes to it. It never returns an error: webhook delivery is a side
// effect of application operations and must not fail them. Dispatch blocks
// until every recipient's first attempt has completed; callers that must not
// wait run it in a goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, projectID string, t event.Type, frag event.Fragment) {
	hooks, err := d.store.ListEnabledWebhooks(ctx, projectID)
	if err != nil {
		d.logger.ErrorContext(ctx, "list webhooks failed",
			"project_id", projectID, "event", t, "error", err)
		return
	}

	matched := hooks[:0:0]
	for _, w := range hooks {
		if w.Subscribed(t) {
			matched = append(matched, w)
		}
	}
	if len(matched) == 0 {
		return
	}

	proj, err := d.store.GetProject(ctx, projectID)
	if err != nil {
		d.logger.ErrorContext(ctx, "load project failed",
			"project_id", projectID, "event", t, "error", err)
		return
	}

	payload := event.BuildPayload(proj, t, frag, time.Now().UTC())
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.ErrorContext(ctx, "marshal payload failed",
			"project_id", projectID, "event", t, "error", err)
		return
	}

	if d.metrics != nil {
		d.metrics.EventsDispatched.Inc()
	}

	// One goroutine per recipient. Each failure is isolated: a slow or
	// broken receiver never affects delivery to the others.
	var wg sync.WaitGroup
	for _, w := range matched {
		wg.Add(1)
		go func(w *webhook.Webhook) {
			defer wg.Done()
			if err := d.limiter.Wait(ctx, w.ID.String(), w.RateLimit); err != nil {
				d.logger.WarnContext(ctx, "rate limit wait aborted",
					"webhook_id", w.ID, "event", t, "error", err)
				return
			}
			d.deliver(ctx, w, t, body)
		}(w)
	}
	wg.Wait()

	d.logger.DebugContext(ctx, "event dispatched",
		"project_id", projectID, "event", t, "webhooks", len(matched))
}

// Test sends a synthetic delivery to a single webhook, regardless of its
// event subscriptions, and reports whether the receiver accepted it.
func (d *Dispatcher) Test(ctx context.Context, whID id.ID) (bool, error) {
	w, err := d.store.GetWebhook(ctx, whID)
	if err != nil {
		return false, err
	}

	proj, err := d.store.GetProject(ctx, w.ProjectID)
	if err != nil {
		proj = &project.Project{ID: w.ProjectID, Name: "Fairlx"}
	}

	payload := event.BuildPayload(proj, event.TaskCreated, event.Fragment{
		WorkItemID: "TEST-1",
		Key:        "TEST-1",
		Title:      "Webhook test",
		Summary:    "This is a test delivery. Your webhook is configured correctly.",
	}, time.Now().UTC())

	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	return d.deliver(ctx, w, event.TaskCreated, body), nil
}

// deliver runs the first attempt for one recipient and enqueues a retry task
// when the failure is transient. Retries reuse the exact serialized body so
// the signature stays reproducible.
func (d *Dispatcher) deliver(ctx context.Context, w *webhook.Webhook, t event.Type, body []byte) bool {
	res := d.send(ctx, w, t, body, 1)

	if !res.Delivered() && res.Retryable() {
		d.queue.Add(&retry.Task{
			WebhookID:      w.ID,
			ProjectID:      w.ProjectID,
			Event:          t,
			Payload:        body,
			Attempt:        1,
			LastError:      res.ResponseBody(),
			LastStatusCode: res.StatusCode,
		})
	}

	return res.Delivered()
}

// send performs one HTTP attempt and records it in the delivery log. Every
// attempt gets a fresh delivery ID, surfaced to the receiver in the
// X-Fairlx-Delivery header.
func (d *Dispatcher) send(ctx context.Context, w *webhook.Webhook, t event.Type, body []byte, attempt int) delivery.Result {
	delID := id.NewDeliveryID()

	sendCtx := ctx
	var span trace.Span
	if d.tracer != nil {
		sendCtx, span = d.tracer.StartDeliverySpan(ctx, delID.String(), string(t), w.ID.String())
	}

	res := d.sender.Send(sendCtx, w, t, delID, body)
	if span != nil {
		d.tracer.EndDeliverySpan(span, res.StatusCode, res.LatencyMs, res.Error)
	}

	rec := &delivery.Delivery{
		Entity:       entity.New(),
		ID:           delID,
		WebhookID:    w.ID,
		Event:        t,
		Payload:      body,
		Status:       res.Status(),
		ResponseCode: res.StatusCode,
		ResponseBody: res.ResponseBody(),
		Attempt:      attempt,
	}
	if err := d.log.Record(ctx, rec); err != nil {
		d.logger.ErrorContext(ctx, "record delivery failed",
			"webhook_id", w.ID, "delivery_id", delID, "error", err)
	}

	if d.metrics != nil {
		d.metrics.RecordDelivery(string(res.Status()), float64(res.LatencyMs)/1000)
	}

	return res
}

// retryAttempt is the retry queue's attempt callback. The webhook is
// re-fetched so a registration disabled or deleted after enqueue is honored.
func (d *Dispatcher) retryAttempt(ctx context.Context, task *retry.Task) retry.Outcome {
	w, err := d.store.GetWebhook(ctx, task.WebhookID)
	if err != nil {
		task.LastError = err.Error()
		task.LastStatusCode = 0
		return retry.Failed
	}

	if !w.Enabled {
		return retry.Resolved
	}

	res := d.send(ctx, w, task.Event, task.Payload, task.Attempt)
	task.LastError = res.ResponseBody()
	task.LastStatusCode = res.StatusCode

	switch {
	case res.Delivered():
		return retry.Delivered
	case res.Retryable():
		return retry.Failed
	default:
		return retry.Terminal
	}
}

// retryExhausted records a permanently failed delivery as a dead letter.
func (d *Dispatcher) retryExhausted(ctx context.Context, task *retry.Task) {
	e := &deadletter.Entry{
		Entity:         entity.New(),
		ID:             id.NewDeadLetterID(),
		WebhookID:      task.WebhookID,
		ProjectID:      task.ProjectID,
		Event:          task.Event,
		Payload:        task.Payload,
		Error:          task.LastError,
		LastStatusCode: task.LastStatusCode,
		AttemptCount:   task.Attempt,
		FailedAt:       time.Now().UTC(),
	}
	if err := d.dlSvc.Push(ctx, e); err != nil {
		d.logger.ErrorContext(ctx, "push dead letter failed",
			"webhook_id", task.WebhookID, "event", task.Event, "error", err)
		return
	}
	if d.metrics != nil {
		d.metrics.DeadLettersTotal.Inc()
	}
}

// redeliver replays a dead letter as a fresh attempt cycle.
func (d *Dispatcher) redeliver(ctx context.Context, e *deadletter.Entry) error {
	w, err := d.store.GetWebhook(ctx, e.WebhookID)
	if err != nil {
		return err
	}
	if !w.Enabled {
		return ErrWebhookDisabled
	}
	d.deliver(ctx, w, e.Event, e.Payload)
	return nil
}

// Stats summarizes the dispatcher's delivery state.
type Stats struct {
	PendingRetries int   `json:"pending_retries"`
	Succeeded      int64 `json:"succeeded"`
	Failed         int64 `json:"failed"`
	DeadLetters    int64 `json:"dead_letters"`
}

// Stats returns delivery counters and queue depth.
func (d *Dispatcher) Stats(ctx context.Context) (*Stats, error) {
	succeeded, err := d.store.CountDeliveries(ctx, delivery.StatusSuccess)
	if err != nil {
		return nil, err
	}
	failed, err := d.store.CountDeliveries(ctx, delivery.StatusFailed)
	if err != nil {
		return nil, err
	}
	deadLetters, err := d.dlSvc.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		PendingRetries: d.queue.Len(),
		Succeeded:      succeeded,
		Failed:         failed,
		DeadLetters:    deadLetters,
	}, nil
}

// Webhooks returns the webhook registration service.
func (d *Dispatcher) Webhooks() *webhook.Service {
	return d.webhookSvc
}

// Deliveries returns the delivery log.
func (d *Dispatcher) Deliveries() *delivery.Log {
	return d.log
}

// DeadLetters returns the dead letter service.
func (d *Dispatcher) DeadLetters() *deadletter.Service {
	return d.dlSvc
}

// Store returns the underlying store.
func (d *Dispatcher) Store() store.Store {
	return d.store
}
