package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
	truncationSuffix     = "..."
)

// SlackConfig contains configuration for Slack webhook notifications
type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
	// RatePerSec and Burst feed the token bucket; Slack allows one message per second
	RatePerSec float64
	Burst      int
}

// SlackNotifier posts notifications to a Slack Incoming Webhook
type SlackNotifier struct {
	config     SlackConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSlackNotifier creates a SlackNotifier
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	if config.RatePerSec <= 0 {
		config.RatePerSec = 1
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &SlackNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RatePerSec), config.Burst),
	}
}

// SlackWebhookPayload is the JSON body sent to the webhook using Block Kit
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Slack Block Kit block
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a text object in Slack Block Kit
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Name implements Notifier
func (s *SlackNotifier) Name() string { return "slack" }

// Notify waits for a rate-limit token and posts the message
func (s *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("slack rate limiter: %w", err)
	}

	body, err := json.Marshal(buildSlackPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Message: "Slack rate limit exceeded", RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Slack API client error: %s", string(respBody))}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Slack API server error: %s", string(respBody))}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
}

// buildSlackPayload renders a section with subject and body, plus a context line of fields
func buildSlackPayload(msg Message) SlackWebhookPayload {
	fallback := truncate(msg.Subject, maxFallbackLength, truncationSuffix)
	section := truncate(fmt.Sprintf("*%s*\n\n%s", msg.Subject, msg.Body), maxSectionTextLength, truncationSuffix)

	blocks := []SlackBlock{{
		Type: "section",
		Text: &SlackTextObject{Type: "mrkdwn", Text: section},
	}}

	if len(msg.Fields) > 0 {
		keys := make([]string, 0, len(msg.Fields))
		for k := range msg.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, msg.Fields[k]))
		}
		blocks = append(blocks, SlackBlock{
			Type:     "context",
			Elements: []SlackTextObject{{Type: "mrkdwn", Text: strings.Join(parts, " • ")}},
		})
	}

	return SlackWebhookPayload{Text: fallback, Blocks: blocks}
}

// retryAfter reads the Retry-After header, defaulting to one second
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}
