package service

import (
	"context"
	"log/slog"

	"storefront/internal/domain"
	"storefront/internal/messaging"
)

// Notifier is told that the order list changed.
type Notifier interface {
	Notify(ctx context.Context) error
}

// Refresher reloads the product catalog.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// EventPublisher wraps a messaging.Publisher bound to one topic. The zero value drops events.
type EventPublisher struct {
	pub   messaging.Publisher
	topic string
}

func NewEventPublisher(pub messaging.Publisher, topic string) *EventPublisher {
	return &EventPublisher{pub: pub, topic: topic}
}

// Publish never fails the caller: the state change it reports is already committed.
func (p *EventPublisher) Publish(ctx context.Context, key string, ev domain.Event) {
	if p == nil || p.pub == nil {
		return
	}
	env, err := messaging.Encode(ev)
	if err != nil {
		slog.Error("Failed to encode event", "type", ev.EventType(), "key", key, "err", err)
		return
	}
	if err := p.pub.PublishEvent(ctx, p.topic, key, env); err != nil {
		slog.Error("Failed to publish event", "type", ev.EventType(), "key", key, "err", err)
	}
}

// NewOrderEventHandler keeps this instance's feed and catalog in step with events
// from any instance.
func NewOrderEventHandler(feed Notifier, catalog Refresher) messaging.Handler {
	return func(ctx context.Context, payload []byte) error {
		ev, err := messaging.Decode(payload)
		if err != nil {
			return err
		}
		slog.Debug("Order event received", "type", ev.EventType())

		switch ev.(type) {
		case domain.OrderResolved, domain.CatalogChanged:
			if err := catalog.Refresh(ctx); err != nil {
				return err
			}
		}
		if _, ok := ev.(domain.CatalogChanged); ok {
			return nil
		}
		return feed.Notify(ctx)
	}
}
