// Package webhook delivers generation lifecycle events to configured
// HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/captionforge/captionforge/internal/logging"
)

// Lifecycle events.
const (
	EventGenerationCompleted = "generation.completed"
	EventGenerationFailed    = "generation.failed"
	EventRenderCompleted     = "render.completed"
)

// Endpoint is one webhook receiver. A non-empty secret enables HMAC
// signing of the payload.
type Endpoint struct {
	URL    string
	Secret string
}

// Event is the wire payload posted to each endpoint.
type Event struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Notifier posts lifecycle events to every configured endpoint. Delivery
// is best effort: failures are retried a few times with backoff and then
// dropped with a logged error.
type Notifier struct {
	client    *http.Client
	endpoints []Endpoint
	log       *logging.Logger

	retries []time.Duration
}

// NewNotifier creates a notifier over the endpoints.
func NewNotifier(endpoints []Endpoint, log *logging.Logger) *Notifier {
	return &Notifier{
		client:    &http.Client{Timeout: 30 * time.Second},
		endpoints: endpoints,
		log:       log,
		retries:   []time.Duration{time.Second, 5 * time.Second, 15 * time.Second},
	}
}

// Notify posts the event to every endpoint. The error reflects only
// payload marshalling; per-endpoint failures are logged, not returned.
func (n *Notifier) Notify(ctx context.Context, event string, data interface{}) error {
	if len(n.endpoints) == 0 {
		return nil
	}

	payload, err := json.Marshal(Event{
		ID:        uuid.New().String(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	for _, ep := range n.endpoints {
		go n.deliver(context.WithoutCancel(ctx), ep, event, payload)
	}
	return nil
}

// deliver posts one payload to one endpoint, retrying with backoff.
func (n *Notifier) deliver(ctx context.Context, ep Endpoint, event string, payload []byte) {
	var lastErr error
	for attempt := 0; attempt <= len(n.retries); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.retries[attempt-1]):
			}
		}

		if lastErr = n.post(ctx, ep, event, payload); lastErr == nil {
			return
		}
	}

	n.log.WithError(lastErr).WithField("url", ep.URL).WithField("event", event).
		Error("Webhook delivery failed")
}

func (n *Notifier) post(ctx context.Context, ep Endpoint, event string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CaptionForge-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", event)
	if ep.Secret != "" {
		req.Header.Set("X-Webhook-Signature", signature(payload, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// signature computes the HMAC-SHA256 signature header value.
func signature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
