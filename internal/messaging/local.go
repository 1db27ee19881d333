package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// LocalBus delivers published events synchronously to in-process handlers.
// Used when no broker is configured.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

var (
	_ Publisher  = (*LocalBus)(nil)
	_ Subscriber = (*LocalBus)(nil)
)

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string]map[int]Handler)}
}

func (b *LocalBus) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, payload); err != nil {
			slog.Error("Error handling message", "topic", topic, "key", key, "err", err)
		}
	}
	return nil
}

// Subscribe registers handler for topic until the returned func is called.
func (b *LocalBus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	b.handlers[topic][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

// Consume subscribes for the lifetime of ctx. groupID is ignored: every handler sees every event.
func (b *LocalBus) Consume(ctx context.Context, topic string, _ string, handler Handler) {
	unsubscribe := b.Subscribe(topic, handler)
	defer unsubscribe()
	<-ctx.Done()
	slog.Info("Consumer shutting down", "topic", topic)
}
