package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier records notifications in the application log instead of delivering them
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("notifier", "log").Logger()}
}

// Notify logs the message
func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.log.Info().
		Str("kind", msg.Kind).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Fields(stringFields(msg.Fields)).
		Msg("Notification recorded")
	return nil
}

// Name implements Notifier
func (n *LogNotifier) Name() string { return "log" }

// NoOpNotifier drops every message
type NoOpNotifier struct{}

// NewNoOpNotifier creates a NoOpNotifier
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Notify does nothing
func (n *NoOpNotifier) Notify(ctx context.Context, msg Message) error {
	return nil
}

// Name implements Notifier
func (n *NoOpNotifier) Name() string { return "none" }

func stringFields(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
