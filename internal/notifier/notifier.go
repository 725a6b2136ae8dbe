// Package notifier delivers engagement notifications to the site owner and
// confirmations to visitors. It never speaks SMTP: the AMQP driver hands
// messages to an external mailer, the Slack driver posts to a channel and
// the log driver only records them.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kinds of notifications
const (
	KindLeadAlert         = "lead_alert"
	KindLeadWelcome       = "lead_welcome"
	KindContactAlert      = "contact_alert"
	KindContactAck        = "contact_ack"
	KindNewsletterWelcome = "newsletter_welcome"
)

// Message is a channel-neutral notification
type Message struct {
	Kind    string            `json:"kind"`
	To      []string          `json:"to"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Fields  map[string]string `json:"fields,omitempty"`
	SentAt  time.Time         `json:"sent_at"`
}

// Notifier sends a message over one channel
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Name() string
}

// RateLimitError represents a 429 rate limit error from a webhook service
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// IsPermanent reports whether retrying the same message cannot succeed
func IsPermanent(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr)
}

// truncate shortens text to maxLength bytes, appending suffix when cut
func truncate(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	cut := maxLength - len(suffix)
	if cut < 0 {
		cut = 0
	}
	return text[:cut] + suffix
}
