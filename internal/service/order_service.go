package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/feed"
	"storefront/internal/repository"
)

// OrderService resolves orders and serves the admin order views.
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	catalog  Refresher
	events   *EventPublisher
}

func NewOrderService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	tx repository.TxManager,
	catalog Refresher,
	events *EventPublisher,
) *OrderService {
	return &OrderService{products: products, orders: orders, tx: tx, catalog: catalog, events: events}
}

// GetOrder returns the order with id.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListRecent(ctx, 0)
}

// SalesTotal sums the totals of completed orders.
func (s *OrderService) SalesTotal(ctx context.Context) (decimal.Decimal, error) {
	orders, err := s.orders.ListRecent(ctx, 0)
	if err != nil {
		return decimal.Zero, err
	}
	return salesTotal(orders), nil
}

func salesTotal(orders []domain.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.Status == domain.OrderStatusCompleted {
			total = total.Add(o.Total)
		}
	}
	return total
}

// Snapshot feeds the admin order stream.
func (s *OrderService) Snapshot(ctx context.Context) (feed.Snapshot, error) {
	orders, err := s.orders.ListRecent(ctx, 0)
	if err != nil {
		return feed.Snapshot{}, err
	}
	return feed.Snapshot{Orders: orders, SalesTotal: salesTotal(orders)}, nil
}

type resolveOptions struct {
	requirePending bool
}

type ResolveOption func(*resolveOptions)

// RequirePending makes cancel fail with ErrInvalidState unless the order is still
// pending when the transaction reads it.
func RequirePending() ResolveOption {
	return func(o *resolveOptions) { o.requirePending = true }
}

// ResolveOrder completes or cancels an order.
//
// Cancel only flips the status unless RequirePending is given.
// Complete checks every line against current stock and then decrements all of them and
// marks the order completed in one transaction, or changes nothing.
func (s *OrderService) ResolveOrder(ctx context.Context, id string, action domain.Action, opts ...ResolveOption) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		resolved *domain.Order
		err      error
	)
	switch action {
	case domain.ActionCancel:
		resolved, err = s.cancel(ctx, id, o.requirePending)
	case domain.ActionComplete:
		resolved, err = s.complete(ctx, id)
	default:
		return nil, ErrInvalidInput
	}
	if err != nil {
		slog.Warn("Order not resolved", "order", id, "action", action, "err", err)
		return nil, err
	}

	slog.Info("Order resolved", "order", id, "status", resolved.Status)
	if action == domain.ActionComplete && s.catalog != nil {
		_ = s.catalog.Refresh(ctx)
	}
	s.events.Publish(ctx, id, domain.OrderResolved{
		OrderID:    id,
		Status:     resolved.Status,
		ResolvedAt: resolvedAt(resolved),
	})
	return resolved, nil
}

func (s *OrderService) cancel(ctx context.Context, id string, requirePending bool) (*domain.Order, error) {
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if requirePending {
			// locks the order row until commit
			o, err := s.orders.GetByID(ctx, id)
			if err != nil {
				return mapOrderErr(err)
			}
			if o.Status != domain.OrderStatusPending {
				return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
			}
		}
		if err := s.orders.UpdateStatus(ctx, id, domain.OrderStatusCancelled); err != nil {
			return mapOrderErr(err)
		}
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return mapOrderErr(err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) complete(ctx context.Context, id string) (*domain.Order, error) {
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return mapOrderErr(err)
		}
		if o.Status != domain.OrderStatusPending {
			return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
		}

		// check every line before touching any stock
		need := make(map[string]int64, len(o.Items))
		var ids []string
		for _, it := range o.Items {
			if _, seen := need[it.ProductID]; !seen {
				ids = append(ids, it.ProductID)
			}
			need[it.ProductID] += it.Quantity
		}
		// fixed lock order across concurrent completions
		sort.Strings(ids)
		for _, pid := range ids {
			p, err := s.products.GetByID(ctx, pid)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrProductNotFound, pid)
			}
			if err != nil {
				return err
			}
			if p.Stock < need[pid] {
				return fmt.Errorf("%w: %s has %d, order needs %d", ErrInsufficientStock, p.Name, p.Stock, need[pid])
			}
		}

		for _, pid := range ids {
			if err := s.products.DecrementStock(ctx, pid, need[pid]); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, pid)
				}
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrProductNotFound, pid)
				}
				return err
			}
		}
		if err := s.orders.UpdateStatus(ctx, id, domain.OrderStatusCompleted); err != nil {
			return mapOrderErr(err)
		}

		o, err = s.orders.GetByID(ctx, id)
		if err != nil {
			return mapOrderErr(err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func mapOrderErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

// resolvedAt is the event timestamp when the repository did not set UpdatedAt.
func resolvedAt(o *domain.Order) time.Time {
	if o.UpdatedAt.IsZero() {
		return time.Now().UTC()
	}
	return o.UpdatedAt
}
