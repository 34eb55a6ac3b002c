package fanout

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fairlx/fanout/observability"
	"github.com/fairlx/fanout/store"
)

// Option configures a Dispatcher instance.
type Option func(*Dispatcher) error

// WithStore sets the persistence backend for the Dispatcher instance.
func WithStore(s store.Store) Option {
	return func(d *Dispatcher) error {
		d.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Dispatcher instance.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// WithConfig replaces the whole configuration in one call.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) error {
		d.config = cfg
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client for delivery attempts. The
// client's own timeout applies instead of RequestTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) error {
		d.httpClient = client
		return nil
	}
}

// WithMaxAttempts sets the total delivery attempt budget per event and webhook.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) error {
		d.config.MaxAttempts = n
		return nil
	}
}

// WithBaseDelay sets the retry backoff unit.
func WithBaseDelay(delay time.Duration) Option {
	return func(d *Dispatcher) error {
		d.config.BaseDelay = delay
		return nil
	}
}

// WithPollInterval sets how often the retry queue checks for due tasks.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) error {
		d.config.PollInterval = interval
		return nil
	}
}

// WithRequestTimeout sets the HTTP timeout per delivery attempt.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) error {
		d.config.RequestTimeout = timeout
		return nil
	}
}

// WithMetrics attaches Prometheus instruments to the dispatcher.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) error {
		d.metrics = m
		return nil
	}
}

// WithTracer attaches OpenTelemetry tracing to delivery attempts.
func WithTracer(t *observability.Tracer) Option {
	return func(d *Dispatcher) error {
		d.tracer = t
		return nil
	}
}
