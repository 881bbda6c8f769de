package events

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/tideloom/tideloom/pkg/domain"
)

// RedisBus carries events over redis pub/sub, letting emit and listen
// tasks span processes sharing one redis instance.
type RedisBus struct {
	client *backend.Client
	prefix string
}

// RedisOption configures the bus.
type RedisOption func(*RedisBus)

// WithPrefix sets the channel name prefix.
func WithPrefix(prefix string) RedisOption {
	return func(b *RedisBus) { b.prefix = prefix }
}

// NewRedisBus creates a bus on an existing client.
func NewRedisBus(client *backend.Client, opts ...RedisOption) *RedisBus {
	bus := &RedisBus{
		client: client,
		prefix: "tideloom:events:",
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

func (b *RedisBus) channel(eventType string) string {
	return b.prefix + eventType
}

// Publish serializes the event and publishes it on the type's channel.
func (b *RedisBus) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.client.Publish(ctx, b.channel(event.Type), payload).Err()
}

// Subscribe listens on the type's channel, decoding each message into an
// event. The cancel func tears the redis subscription down and closes the
// returned channel.
func (b *RedisBus) Subscribe(ctx context.Context, eventType string) (<-chan domain.Event, func(), error) {
	pubsub := b.client.Subscribe(ctx, b.channel(eventType))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan domain.Event, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}
