package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/session"
)

func TestCartService_AddUntilStock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.product(t, "Tomate", "2.50", 5)
	sess := session.New()

	for i := 0; i < 5; i++ {
		_, err := h.carts.AddItem(ctx, sess, p.ID)
		require.NoError(t, err)
	}
	view, err := h.carts.AddItem(ctx, sess, p.ID)
	require.ErrorIs(t, err, ErrStockExceeded)
	assert.EqualValues(t, 5, view.ItemCount)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("12.5")))

	saved, err := h.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, saved.Cart, 1)
	assert.EqualValues(t, 5, saved.Cart[0].Quantity)
}

func TestCartService_SetQuantityClampsAndSaves(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.product(t, "Tomate", "1", 3)
	sess := session.New()
	_, err := h.carts.AddItem(ctx, sess, p.ID)
	require.NoError(t, err)

	view, err := h.carts.SetQuantity(ctx, sess, p.ID, 10)
	require.ErrorIs(t, err, ErrStockExceeded)
	assert.EqualValues(t, 3, view.ItemCount)

	saved, err := h.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, saved.Cart[0].Quantity)

	view, err = h.carts.Remove(ctx, sess, p.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.NotNil(t, view.Lines)
	assert.Empty(t, sess.Cart)
}

func TestCartService_UnknownProductIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess := session.New()
	view, err := h.carts.AddItem(ctx, sess, "missing")
	require.NoError(t, err)
	assert.Zero(t, view.ItemCount)

	_, err = h.carts.AddItem(ctx, sess, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCartService_View(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.product(t, "A", "0.10", 9)
	b := h.product(t, "B", "0.20", 9)
	sess := session.New()
	_, _ = h.carts.AddItem(ctx, sess, a.ID)
	_, _ = h.carts.SetQuantity(ctx, sess, a.ID, 3)
	_, _ = h.carts.AddItem(ctx, sess, b.ID)

	view := h.carts.View(sess)
	assert.Len(t, view.Lines, 2)
	assert.EqualValues(t, 4, view.ItemCount)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("0.5")), view.Total.String())
}
