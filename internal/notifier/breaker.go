package notifier

import (
	"context"
	"time"

	"github.com/pulcova-api/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds the configuration for a circuit breaker
type BreakerConfig struct {
	Name string
	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32
	// Interval is the cyclic period of the closed state to clear counts
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again
	Timeout time.Duration
	// FailureThreshold is the failure ratio that trips the breaker
	FailureThreshold float64
	// MinRequests is the minimum number of requests before the ratio is evaluated
	MinRequests uint32
}

// DefaultBreakerConfig returns the breaker settings used for outbound notifiers
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// breakerNotifier short-circuits a failing transport
type breakerNotifier struct {
	next    Notifier
	breaker *gobreaker.CircuitBreaker
}

// WithCircuitBreaker guards next with a gobreaker circuit breaker.
// While open, Notify fails fast with gobreaker.ErrOpenState.
func WithCircuitBreaker(next Notifier, cfg BreakerConfig, log zerolog.Logger) Notifier {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		// A rejected payload says nothing about the health of the transport
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("circuit", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	return &breakerNotifier{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerNotifier) Notify(ctx context.Context, msg Message) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.next.Notify(ctx, msg)
	})
	return err
}

func (b *breakerNotifier) Name() string { return b.next.Name() }

// instrumented records an outcome metric for every message
type instrumented struct {
	next Notifier
}

// Instrument wraps next so every Notify call is counted by driver, kind and outcome
func Instrument(next Notifier) Notifier {
	return &instrumented{next: next}
}

func (i *instrumented) Notify(ctx context.Context, msg Message) error {
	err := i.next.Notify(ctx, msg)
	metrics.RecordNotification(i.next.Name(), msg.Kind, err == nil)
	return err
}

func (i *instrumented) Name() string { return i.next.Name() }
