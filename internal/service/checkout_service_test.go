package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/session"
	"storefront/internal/whatsapp"
)

func TestCheckout_Success(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	tomate := h.product(t, "Tomate", "4.50", 5)
	alface := h.product(t, "Alface", "3.50", 5)
	u := h.user(t, "Maria")

	c := cart.New(h.catalog, nil)
	require.NoError(t, c.AddItem(tomate.ID))
	require.NoError(t, c.AddItem(tomate.ID))
	require.NoError(t, c.AddItem(alface.ID))
	h.events = nil

	res, err := h.checkout.Checkout(ctx, c, u)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty(), "cart cleared")

	assert.Equal(t, domain.OrderStatusPending, res.Order.Status)
	assert.Equal(t, u.ID, res.Order.Customer.UserID)
	assert.True(t, res.Order.Total.Equal(decimal.RequireFromString("12.50")))
	assert.False(t, res.Order.CreatedAt.IsZero())

	stored, err := h.orderSvc.GetOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.True(t, stored.Total.Equal(stored.ComputeTotal()))

	link, err := url.Parse(res.RedirectURL)
	require.NoError(t, err)
	text := link.Query().Get("text")
	assert.Contains(t, text, "Maria")
	assert.Contains(t, text, "- 2 kg de Tomate")
	assert.Contains(t, text, "- 1 kg de Alface")
	assert.Equal(t, res.Message, text)

	assert.Equal(t, []string{domain.EventOrderPlaced}, h.eventTypes())
	assert.EqualValues(t, 5, h.stock(t, tomate.ID), "checkout does not reserve stock")
}

func TestCheckout_SnapshotIsDeepCopy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.product(t, "Tomate", "2", 5)
	u := h.user(t, "Maria")

	c := cart.New(h.catalog, nil)
	require.NoError(t, c.AddItem(p.ID))
	res, err := h.checkout.Checkout(ctx, c, u)
	require.NoError(t, err)

	res.Order.Items[0].Quantity = 99
	require.NoError(t, c.AddItem(p.ID))
	require.NoError(t, c.SetQuantity(p.ID, 4))

	stored, err := h.orderSvc.GetOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.Items[0].Quantity)
}

func TestCheckout_EmptyCartWritesNothing(t *testing.T) {
	orders := &mockOrders{}
	builder, err := whatsapp.NewBuilder("")
	require.NoError(t, err)
	svc := NewCheckoutService(orders, emptyCatalog{}, builder, nil, session.NewMemoryStore(0), nil)

	_, err = svc.Checkout(context.Background(), cart.New(emptyCatalog{}, nil), &domain.User{ID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = svc.Checkout(context.Background(), cart.New(emptyCatalog{}, nil), nil)
	assert.ErrorIs(t, err, ErrEmptyCart, "empty cart is reported before authentication")
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_Unauthenticated(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Tomate", "2", 5)
	c := cart.New(h.catalog, nil)
	require.NoError(t, c.AddItem(p.ID))

	_, err := h.checkout.Checkout(context.Background(), c, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 1, c.Len())
}

func TestCheckout_PersistenceFailureKeepsCart(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Tomate", "2", 5)
	orders := &mockOrders{}
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(errors.New("connection reset"))
	builder, err := whatsapp.NewBuilder("")
	require.NoError(t, err)
	svc := NewCheckoutService(orders, h.catalog, builder, h.auth, h.sessions, NewEventPublisher(h.bus, testTopic))

	c := cart.New(h.catalog, nil)
	require.NoError(t, c.AddItem(p.ID))
	require.NoError(t, c.AddItem(p.ID))
	h.events = nil

	_, err = svc.Checkout(context.Background(), c, &domain.User{ID: "u1", Name: "Ana"})
	require.ErrorIs(t, err, ErrPersistenceFailed)
	assert.Equal(t, 1, c.Len())
	assert.EqualValues(t, 2, c.ItemCount())
	assert.Empty(t, h.events, "no event for an order that was not stored")
	orders.AssertExpectations(t)
}

func TestCheckoutSession_ResumeAfterLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.product(t, "Tomate", "2", 5)

	sess := session.New()
	_, err := h.carts.AddItem(ctx, sess, p.ID)
	require.NoError(t, err)

	_, err = h.checkout.CheckoutSession(ctx, sess)
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.True(t, sess.CheckoutAfterLogin)
	saved, err := h.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, saved.CheckoutAfterLogin)
	assert.Len(t, saved.Cart, 1)

	_, err = h.auth.SignUp(ctx, "Maria", "", "maria@example.com", "secret1")
	require.NoError(t, err)
	res, err := h.accounts.SignIn(ctx, sess, "maria@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, res.CheckoutError)
	require.NotNil(t, res.Checkout)
	assert.Equal(t, res.User.ID, res.Checkout.Order.Customer.UserID)
	assert.False(t, sess.CheckoutAfterLogin)
	assert.Empty(t, sess.Cart)

	// the continuation is one-shot
	_, err = h.carts.AddItem(ctx, sess, p.ID)
	require.NoError(t, err)
	again, err := h.accounts.SignIn(ctx, sess, "maria@example.com", "secret1")
	require.NoError(t, err)
	assert.Nil(t, again.Checkout)

	orders, err := h.orderSvc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCheckoutSession_EmptyCartDoesNotSetFlag(t *testing.T) {
	h := newHarness(t)
	sess := session.New()
	_, err := h.checkout.CheckoutSession(context.Background(), sess)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.False(t, sess.CheckoutAfterLogin)
}

func TestCheckoutSession_DeletedUserIsAnonymous(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.product(t, "Tomate", "2", 5)
	sess := session.New()
	sess.UserID = "ghost"
	_, err := h.carts.AddItem(ctx, sess, p.ID)
	require.NoError(t, err)

	_, err = h.checkout.CheckoutSession(ctx, sess)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, sess.UserID)
	assert.True(t, sess.CheckoutAfterLogin)
}

type emptyCatalog struct{}

func (emptyCatalog) FindByID(string) (domain.Product, bool) { return domain.Product{}, false }
