package events

import (
	"context"
	"sync"

	"github.com/tideloom/tideloom/pkg/domain"
)

// MemoryBus is an in-process event bus: publish fans out to every
// subscriber of the event type. Suitable for single-process runs and tests.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan domain.Event
	buffer int
}

// NewMemoryBus creates an in-memory bus. Subscriber channels are buffered
// so a slow listener does not block publishers until the buffer fills.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs:   make(map[string]map[int]chan domain.Event),
		buffer: 16,
	}
}

// Publish delivers the event to every current subscriber of its type.
// Subscribers with full buffers are skipped rather than blocking the run.
func (b *MemoryBus) Publish(ctx context.Context, event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[event.Type] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers interest in one event type. The returned cancel func
// removes the subscription and closes the channel.
func (b *MemoryBus) Subscribe(ctx context.Context, eventType string) (<-chan domain.Event, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[int]chan domain.Event)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan domain.Event, b.buffer)
	b.subs[eventType][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[eventType][id]; ok {
			delete(b.subs[eventType], id)
			close(sub)
		}
	}
	return ch, cancel, nil
}
