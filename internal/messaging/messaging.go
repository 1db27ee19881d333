package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/domain"
)

// Handler processes one raw message payload.
type Handler func(ctx context.Context, payload []byte) error

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
// Consume blocks until ctx is done.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler Handler)
}

// Encode wraps ev in an Envelope so consumers can tell event types apart.
func Encode(ev domain.Event) (domain.Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return domain.Envelope{Type: ev.EventType(), Payload: payload}, nil
}

// Decode parses an Envelope payload back into its concrete event.
func Decode(data []byte) (domain.Event, error) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	switch env.Type {
	case domain.EventOrderPlaced:
		var ev domain.OrderPlaced
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", env.Type, err)
		}
		return ev, nil
	case domain.EventOrderResolved:
		var ev domain.OrderResolved
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", env.Type, err)
		}
		return ev, nil
	case domain.EventCatalogChanged:
		var ev domain.CatalogChanged
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", env.Type, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}
