package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing events to NATS JetStream.
// A nil Publisher is valid and drops every event, so callers don't have to
// branch when NATS is disabled.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishCoinsAwarded publishes one event per committed coin award.
func (p *Publisher) PublishCoinsAwarded(ctx context.Context, event CoinAwardedEvent) error {
	return p.publish(ctx, SubjectCoinsAwarded, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
