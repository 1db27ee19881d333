package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"storefront/internal/domain"
)

type fakeCatalog map[string]domain.Product

func (f fakeCatalog) FindByID(id string) (domain.Product, bool) {
	p, ok := f[id]
	return p, ok
}

func product(id string, price string, stock int64) domain.Product {
	return domain.Product{ID: id, Name: "Produto " + id, Unit: "kg", Price: decimal.RequireFromString(price), Stock: stock}
}

func TestAddItem_StopsAtStock(t *testing.T) {
	c := New(fakeCatalog{"a": product("a", "2.50", 5)}, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.AddItem("a"))
	}
	assert.EqualValues(t, 3, c.Lines()[0].Quantity)

	require.NoError(t, c.AddItem("a"))
	require.NoError(t, c.AddItem("a"))
	assert.EqualValues(t, 5, c.Lines()[0].Quantity)

	assert.ErrorIs(t, c.AddItem("a"), ErrStockExceeded)
	assert.EqualValues(t, 5, c.Lines()[0].Quantity)
	assert.Equal(t, 1, c.Len())
}

func TestAddItem_IgnoresUnknownAndSoldOut(t *testing.T) {
	c := New(fakeCatalog{"z": product("z", "1", 0)}, nil)
	assert.NoError(t, c.AddItem("missing"))
	assert.NoError(t, c.AddItem("z"))
	assert.True(t, c.IsEmpty())
}

func TestSetQuantity(t *testing.T) {
	cat := fakeCatalog{"a": product("a", "3", 4), "b": product("b", "1", 10)}
	c := New(cat, nil)
	require.NoError(t, c.AddItem("a"))
	require.NoError(t, c.AddItem("b"))

	require.NoError(t, c.SetQuantity("b", 7))
	assert.EqualValues(t, 7, c.Lines()[1].Quantity)

	assert.ErrorIs(t, c.SetQuantity("a", 9), ErrStockExceeded)
	assert.EqualValues(t, 4, c.Lines()[0].Quantity)

	require.NoError(t, c.SetQuantity("a", 0))
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "b", c.Lines()[0].ProductID)

	require.NoError(t, c.SetQuantity("not-in-cart", 3))
	assert.Equal(t, 1, c.Len())
}

func TestSetQuantity_ClampToZeroRemovesLine(t *testing.T) {
	cat := fakeCatalog{"a": product("a", "3", 2)}
	c := New(cat, nil)
	require.NoError(t, c.AddItem("a"))

	cat["a"] = product("a", "3", 0)
	assert.ErrorIs(t, c.SetQuantity("a", 1), ErrStockExceeded)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantity_RemovesDeletedProduct(t *testing.T) {
	cat := fakeCatalog{"a": product("a", "3", 2)}
	c := New(cat, nil)
	require.NoError(t, c.AddItem("a"))
	delete(cat, "a")

	require.NoError(t, c.SetQuantity("a", 2))
	assert.Equal(t, 1, c.Len(), "unknown product keeps its line for positive quantities")
	c.Remove("a")
	assert.True(t, c.IsEmpty())
}

func TestTotalsAndSnapshot(t *testing.T) {
	cat := fakeCatalog{"a": product("a", "0.333", 10), "b": product("b", "1.10", 10)}
	c := New(cat, nil)
	require.NoError(t, c.SetQuantity("a", 3))
	require.NoError(t, c.AddItem("a"))
	require.NoError(t, c.SetQuantity("a", 3))
	require.NoError(t, c.AddItem("b"))
	require.NoError(t, c.AddItem("b"))

	assert.True(t, c.Total().Equal(decimal.RequireFromString("3.199")), c.Total().String())
	assert.EqualValues(t, 5, c.ItemCount())
	assert.Equal(t, 2, c.Len())

	snap := c.Snapshot()
	require.NoError(t, c.SetQuantity("a", 1))
	assert.EqualValues(t, 3, snap[0].Quantity)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Len(t, snap, 2)
}

func TestNew_DropsDuplicatesAndZeroLines(t *testing.T) {
	c := New(fakeCatalog{}, []domain.CartLine{
		{ProductID: "a", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 0},
	})
	require.Equal(t, 1, c.Len())
	assert.EqualValues(t, 1, c.Lines()[0].Quantity)
}

func TestCart_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := []string{"a", "b", "c"}
		cat := fakeCatalog{}
		for _, id := range ids {
			cat[id] = product(id, "1.25", rapid.Int64Range(0, 6).Draw(t, "stock_"+id))
		}
		c := New(cat, nil)

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(t, "id")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				_ = c.AddItem(id)
			case 1:
				_ = c.SetQuantity(id, rapid.Int64Range(-2, 9).Draw(t, "q"))
			case 2:
				p := cat[id]
				p.Stock = rapid.Int64Range(0, 6).Draw(t, "restock")
				cat[id] = p
			}

			seen := map[string]bool{}
			for _, l := range c.Lines() {
				if seen[l.ProductID] {
					t.Fatalf("duplicate line for %s", l.ProductID)
				}
				seen[l.ProductID] = true
				if l.Quantity <= 0 {
					t.Fatalf("non-positive quantity stored: %+v", l)
				}
			}
		}
	})
}

func TestAddItem_NeverAboveStock(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stock := rapid.Int64Range(0, 8).Draw(t, "stock")
		c := New(fakeCatalog{"a": product("a", "1", stock)}, nil)
		adds := rapid.IntRange(0, 12).Draw(t, "adds")
		for i := 0; i < adds; i++ {
			_ = c.AddItem("a")
			for _, l := range c.Lines() {
				if l.Quantity > stock {
					t.Fatalf("quantity %d above stock %d", l.Quantity, stock)
				}
			}
		}
	})
}
