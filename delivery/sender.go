package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fairlx/fanout/event"
	"github.com/fairlx/fanout/id"
	"github.com/fairlx/fanout/signature"
	"github.com/fairlx/fanout/webhook"
)

// maxResponseBody caps how much of the response body is kept on the record.
const maxResponseBody = 1000

// Result holds the outcome of a single HTTP delivery attempt.
type Result struct {
	StatusCode int
	Body       string
	Error      string
	LatencyMs  int
}

// Delivered reports whether the response status was in the success range.
func (r Result) Delivered() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Retryable reports whether the attempt failed with a transient condition:
// a 5xx response or a network/timeout failure. 4xx responses are terminal.
func (r Result) Retryable() bool {
	if r.StatusCode == 0 {
		return true // network failure or timeout
	}
	return r.StatusCode >= 500
}

// Status maps the result onto the log record status.
func (r Result) Status() Status {
	if r.Delivered() {
		return StatusSuccess
	}
	return StatusFailed
}

// ResponseBody returns the capped body, or the error text when the attempt
// never produced a response.
func (r Result) ResponseBody() string {
	if r.StatusCode == 0 {
		return r.Error
	}
	return r.Body
}

// Sender performs HTTP webhook delivery.
type Sender struct {
	client *http.Client
}

// NewSender creates a sender with the given per-attempt timeout.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{Timeout: timeout},
	}
}

// NewSenderWithClient creates a sender over an injected HTTP client, for
// callers that need custom transports.
func NewSenderWithClient(client *http.Client) *Sender {
	return &Sender{client: client}
}

// Send delivers a serialized payload to a webhook and returns the result.
// The body must be the exact bytes to sign and send; retries reuse the same
// serialization, only deliveryID differs per attempt.
func (s *Sender) Send(ctx context.Context, w *webhook.Webhook, t event.Type, deliveryID id.ID, body []byte) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Fairlx-Hooks/1.0")
	req.Header.Set("X-Fairlx-Event", string(t))
	req.Header.Set("X-Fairlx-Delivery", deliveryID.String())

	if w.Secret != "" {
		req.Header.Set("X-Fairlx-Signature", signature.Sign(body, w.Secret))
	}

	start := time.Now()
	resp, err := s.client.Do(req) //nolint:gosec // URL is an admin-configured webhook destination, validated at registration.
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return Result{
			Error:     err.Error(),
			LatencyMs: int(latency),
		}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		return Result{
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("read response: %v", readErr),
			Body:       fmt.Sprintf("read response: %v", readErr),
			LatencyMs:  int(latency),
		}
	}

	return Result{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		LatencyMs:  int(latency),
	}
}
