package notifier

import (
	"fmt"

	"github.com/pulcova-api/internal/config"
	"github.com/rs/zerolog"
)

// Set holds the notifiers the application routes messages through
type Set struct {
	// Owner receives lead and contact alerts synchronously
	Owner Notifier
	// Visitor delivers confirmations; always used through a Dispatcher
	Visitor Notifier

	closers []func() error
}

// Close releases transport connections
func (s *Set) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewSet builds the notifiers for the configured driver. Visitor confirmations go
// over AMQP when that driver is selected and to the log otherwise.
func NewSet(cfg config.NotifierConfig, log zerolog.Logger) (*Set, error) {
	logNotifier := Instrument(NewLogNotifier(log))
	set := &Set{Owner: logNotifier, Visitor: logNotifier}

	switch cfg.Driver {
	case "", "log":
	case "none":
		set.Owner = Instrument(NewNoOpNotifier())
		set.Visitor = set.Owner
	case "slack":
		slack := NewSlackNotifier(SlackConfig{
			WebhookURL: cfg.SlackWebhook,
			Timeout:    cfg.Timeout,
			RatePerSec: cfg.RatePerSec,
			Burst:      cfg.Burst,
		})
		set.Owner = Instrument(WithCircuitBreaker(slack, DefaultBreakerConfig("slack"), log))
	case "amqp":
		amqpNotifier, err := NewAMQPNotifier(AMQPConfig{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			Queue:      cfg.AMQPQueue,
			RoutingKey: cfg.AMQPRouting,
		}, log)
		if err != nil {
			return nil, err
		}
		guarded := Instrument(WithCircuitBreaker(amqpNotifier, DefaultBreakerConfig("amqp"), log))
		set.Owner = guarded
		set.Visitor = guarded
		set.closers = append(set.closers, amqpNotifier.Close)
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Driver)
	}

	log.Info().
		Str("owner", set.Owner.Name()).
		Str("visitor", set.Visitor.Name()).
		Msg("Notifiers configured")
	return set, nil
}
