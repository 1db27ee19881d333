package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/session"
)

// CartView is what the storefront renders for a cart.
type CartView struct {
	Lines     []domain.CartLine `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int64             `json:"item_count"`
}

func viewOf(c *cart.Cart) CartView {
	lines := c.Lines()
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartView{Lines: lines, Total: c.Total(), ItemCount: c.ItemCount()}
}

// CartService applies cart operations to a session and saves it.
type CartService struct {
	catalog  cart.Catalog
	sessions session.Store
}

func NewCartService(catalog cart.Catalog, sessions session.Store) *CartService {
	return &CartService{catalog: catalog, sessions: sessions}
}

func (s *CartService) View(sess *session.Session) CartView {
	return viewOf(cart.New(s.catalog, sess.Cart))
}

func (s *CartService) AddItem(ctx context.Context, sess *session.Session, productID string) (CartView, error) {
	if productID == "" {
		return CartView{}, ErrInvalidInput
	}
	return s.mutate(ctx, sess, func(c *cart.Cart) error { return c.AddItem(productID) })
}

func (s *CartService) SetQuantity(ctx context.Context, sess *session.Session, productID string, q int64) (CartView, error) {
	if productID == "" {
		return CartView{}, ErrInvalidInput
	}
	return s.mutate(ctx, sess, func(c *cart.Cart) error { return c.SetQuantity(productID, q) })
}

func (s *CartService) Remove(ctx context.Context, sess *session.Session, productID string) (CartView, error) {
	return s.SetQuantity(ctx, sess, productID, 0)
}

// mutate saves the session even when op reports ErrStockExceeded, since the cart is
// still consistent after a clamp.
func (s *CartService) mutate(ctx context.Context, sess *session.Session, op func(*cart.Cart) error) (CartView, error) {
	c := cart.New(s.catalog, sess.Cart)
	opErr := op(c)
	if opErr != nil && !errors.Is(opErr, cart.ErrStockExceeded) {
		return CartView{}, opErr
	}
	sess.Cart = c.Lines()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return CartView{}, fmt.Errorf("save session: %w", err)
	}
	return viewOf(c), opErr
}
