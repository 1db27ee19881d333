package service

import (
	"errors"

	"storefront/internal/cart"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("forbidden")
	ErrPersistenceFailed = errors.New("persistence failed")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")

	// ErrStockExceeded is a warning: the cart was saved with the quantity clamped.
	ErrStockExceeded = cart.ErrStockExceeded
)
