package fanout

import "time"

// Config holds the configuration for a Dispatcher instance.
type Config struct {
	// MaxAttempts is the total delivery attempt budget per event and
	// webhook, including the initial attempt.
	MaxAttempts int

	// BaseDelay is the retry backoff unit: after the nth failed attempt
	// the next one is scheduled 2^n * BaseDelay later.
	BaseDelay time.Duration

	// PollInterval is how often the retry queue checks for due tasks.
	PollInterval time.Duration

	// RequestTimeout is the HTTP timeout per delivery attempt.
	RequestTimeout time.Duration
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseDelay:      5 * time.Second,
		PollInterval:   10 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}
