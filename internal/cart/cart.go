// Package cart reconciles cart quantities against the live catalog stock.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// ErrStockExceeded is returned when a requested quantity is above the product stock.
// The cart is still valid afterwards; callers show it as a warning.
var ErrStockExceeded = errors.New("stock exceeded")

// Catalog is the product lookup the cart validates against.
type Catalog interface {
	FindByID(id string) (domain.Product, bool)
}

// Cart is an ordered list of lines with unique product ids. Not safe for
// concurrent use; each session owns its cart.
type Cart struct {
	catalog Catalog
	lines   []domain.CartLine
}

// New wraps lines restored from a session. Zero-quantity lines are dropped.
func New(catalog Catalog, lines []domain.CartLine) *Cart {
	c := &Cart{catalog: catalog}
	for _, l := range lines {
		if l.Quantity <= 0 || c.index(l.ProductID) >= 0 {
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func lineFor(p domain.Product, qty int64) domain.CartLine {
	return domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Unit:      p.Unit,
		Image:     p.Image,
		Price:     p.Price,
		Quantity:  qty,
	}
}

// AddItem adds one unit. Unknown or out-of-stock products are ignored.
func (c *Cart) AddItem(productID string) error {
	p, ok := c.catalog.FindByID(productID)
	if !ok || p.Stock <= 0 {
		return nil
	}
	i := c.index(productID)
	if i < 0 {
		c.lines = append(c.lines, lineFor(p, 1))
		return nil
	}
	if c.lines[i].Quantity >= p.Stock {
		return ErrStockExceeded
	}
	c.lines[i] = lineFor(p, c.lines[i].Quantity+1)
	return nil
}

// SetQuantity sets an existing line's quantity. q <= 0 removes the line; a
// quantity above stock is clamped and reported with ErrStockExceeded.
func (c *Cart) SetQuantity(productID string, q int64) error {
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	if q <= 0 {
		c.removeAt(i)
		return nil
	}
	p, ok := c.catalog.FindByID(productID)
	if !ok {
		return nil
	}
	if q > p.Stock {
		if p.Stock <= 0 {
			c.removeAt(i)
		} else {
			c.lines[i] = lineFor(p, p.Stock)
		}
		return ErrStockExceeded
	}
	c.lines[i] = lineFor(p, q)
	return nil
}

func (c *Cart) Remove(productID string) {
	_ = c.SetQuantity(productID, 0)
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Total is unrounded; rounding happens only when rendering.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount sums quantities, unlike Len which counts lines.
func (c *Cart) ItemCount() int64 {
	var n int64
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Clear() { c.lines = nil }

// Lines returns a copy safe to store in a session.
func (c *Cart) Lines() []domain.CartLine {
	if len(c.lines) == 0 {
		return nil
	}
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Snapshot freezes the lines for an order. Later cart mutations never reach it.
func (c *Cart) Snapshot() []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, domain.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Unit:      l.Unit,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}
	return out
}
