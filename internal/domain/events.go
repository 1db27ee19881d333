package domain

import (
	"encoding/json"
	"time"
)

// Event is published after an order is written.
type Event interface {
	EventType() string
}

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderResolved  = "OrderResolved"
	EventCatalogChanged = "CatalogChanged"
)

// OrderPlaced is emitted once checkout has persisted a pending order.
type OrderPlaced struct {
	Order Order `json:"order"`
}

func (e OrderPlaced) EventType() string { return EventOrderPlaced }

// OrderResolved is emitted when an admin completes or cancels an order.
type OrderResolved struct {
	OrderID    string      `json:"order_id"`
	Status     OrderStatus `json:"status"`
	ResolvedAt time.Time   `json:"resolved_at"`
}

func (e OrderResolved) EventType() string { return EventOrderResolved }

// CatalogChanged is emitted after an admin creates, edits or deletes a product.
type CatalogChanged struct {
	ProductID string    `json:"product_id"`
	ChangedAt time.Time `json:"changed_at"`
}

func (e CatalogChanged) EventType() string { return EventCatalogChanged }

// Envelope is the wire form of an Event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
