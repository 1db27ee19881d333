package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"
)

// MessageBuilder renders the seller message and the link that carries it.
type MessageBuilder interface {
	Build(o domain.Order) (message string, link string, err error)
}

// UserLookup resolves the signed-in user of a session.
type UserLookup interface {
	User(ctx context.Context, id string) (*domain.User, error)
}

type CheckoutResult struct {
	Order       domain.Order `json:"order"`
	Message     string       `json:"message"`
	RedirectURL string       `json:"redirect_url"`
}

// CheckoutService turns a cart into a pending order and a seller message.
type CheckoutService struct {
	orders   repository.OrderRepository
	catalog  cart.Catalog
	messages MessageBuilder
	users    UserLookup
	sessions session.Store
	events   *EventPublisher
}

func NewCheckoutService(
	orders repository.OrderRepository,
	catalog cart.Catalog,
	messages MessageBuilder,
	users UserLookup,
	sessions session.Store,
	events *EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		catalog:  catalog,
		messages: messages,
		users:    users,
		sessions: sessions,
		events:   events,
	}
}

// Checkout persists a pending order built from c and clears c. On any failure c is untouched.
func (s *CheckoutService) Checkout(ctx context.Context, c *cart.Cart, user *domain.User) (*CheckoutResult, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	o := domain.Order{
		Customer: user.Customer(),
		Items:    c.Snapshot(),
		Total:    c.Total(),
		Status:   domain.OrderStatusPending,
	}

	message, link, err := s.messages.Build(o)
	if err != nil {
		return nil, fmt.Errorf("build checkout message: %w", err)
	}

	if err := s.orders.Create(ctx, &o); err != nil {
		slog.Error("Failed to persist order", "user", user.ID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	c.Clear()

	slog.Info("Order placed", "order", o.ID, "user", user.ID, "total", o.Total.String(), "lines", len(o.Items))
	s.events.Publish(ctx, o.ID, domain.OrderPlaced{Order: o.Clone()})

	return &CheckoutResult{Order: o, Message: message, RedirectURL: link}, nil
}

// CheckoutSession runs Checkout for a session. Without a signed-in user it records the
// intent to check out after login, saves the session and returns ErrUnauthenticated.
func (s *CheckoutService) CheckoutSession(ctx context.Context, sess *session.Session) (*CheckoutResult, error) {
	c := cart.New(s.catalog, sess.Cart)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	user, err := s.sessionUser(ctx, sess)
	if err != nil {
		return nil, err
	}
	if user == nil {
		sess.UserID = ""
		sess.CheckoutAfterLogin = true
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		return nil, ErrUnauthenticated
	}

	res, err := s.Checkout(ctx, c, user)
	if err != nil {
		return nil, err
	}
	sess.Cart = c.Lines()
	if err := s.sessions.Save(ctx, sess); err != nil {
		// order is already stored, so this only logs
		slog.Error("Failed to save session after checkout", "session", sess.ID, "order", res.Order.ID, "err", err)
	}
	return res, nil
}

func (s *CheckoutService) sessionUser(ctx context.Context, sess *session.Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, nil
	}
	u, err := s.users.User(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}
