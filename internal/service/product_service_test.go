package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

func TestProduct_Create_Valid(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p, err := h.products.Create(ctx, domain.Product{Name: "Tomate", Unit: "kg", Price: decimal.RequireFromString("7.90"), Stock: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected id assigned")
	}
	if _, ok := h.catalog.FindByID(p.ID); !ok {
		t.Fatalf("catalog not refreshed after create")
	}
	if got := h.eventTypes(); len(got) != 1 || got[0] != domain.EventCatalogChanged {
		t.Fatalf("expected catalog event, got %v", got)
	}
}

func TestProduct_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	one := decimal.NewFromInt(1)
	cases := []domain.Product{
		{Name: "", Unit: "kg", Price: one, Stock: 1},
		{Name: "N", Unit: " ", Price: one, Stock: 1},
		{Name: "N", Unit: "kg", Price: decimal.NewFromInt(-1), Stock: 1},
		{Name: "N", Unit: "kg", Price: one, Stock: -1},
		{Name: "N", Unit: "kg", Price: decimal.RequireFromString("1.999"), Stock: 1},
	}
	for _, p := range cases {
		if _, err := h.products.Create(ctx, p); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected validation error for %+v, got %v", p, err)
		}
	}
}

func TestProduct_Update_Get_Delete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.product(t, "Alface", "3.50", 5)

	got, err := h.products.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get failed: %v", err)
	}

	p.Name = "Alface Crespa"
	p.Price = decimal.RequireFromString("4")
	p.Stock = 7
	up, err := h.products.Update(ctx, *p)
	if err != nil {
		t.Fatalf("update err: %v", err)
	}
	if up.Name != "Alface Crespa" || !up.Price.Equal(decimal.NewFromInt(4)) || up.Stock != 7 {
		t.Fatalf("not updated")
	}
	cached, _ := h.catalog.FindByID(p.ID)
	if cached.Stock != 7 {
		t.Fatalf("catalog still has stock %d", cached.Stock)
	}

	if err := h.products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete err: %v", err)
	}
	if _, err := h.products.GetByID(ctx, p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, ok := h.catalog.FindByID(p.ID); ok {
		t.Fatalf("deleted product still in catalog")
	}
	if err := h.products.Delete(ctx, p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := h.products.Update(ctx, *p); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
}

func TestProduct_List_Filtering(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.product(t, "Tomate", "100", 5)
	h.product(t, "Alface", "50", 5)
	h.product(t, "Batata", "150", 5)

	list, err := h.products.List(ctx, repository.ProductFilter{NameSubstring: "AT"})
	if err != nil {
		t.Fatalf("list err: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list))
	}

	min := decimal.NewFromInt(100)
	list, err = h.products.List(ctx, repository.ProductFilter{MinPrice: &min})
	if err != nil {
		t.Fatalf("list err: %v", err)
	}
	for _, p := range list {
		if p.Price.LessThan(min) {
			t.Fatalf("price filter failed")
		}
	}

	max := decimal.NewFromInt(50)
	if _, err := h.products.List(ctx, repository.ProductFilter{MinPrice: &min, MaxPrice: &max}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestProduct_PriceInCents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p, err := h.products.Create(ctx, domain.Product{Name: "Queijo", Unit: "kg", Price: decimal.RequireFromString("10.500"), Stock: 1})
	if err != nil {
		t.Fatalf("trailing zeros are whole cents: %v", err)
	}

	p.Price = decimal.RequireFromString("10.505")
	if _, err := h.products.Update(ctx, *p); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := h.products.GetByID(ctx, p.ID)
	if !got.Price.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("price changed to %s", got.Price)
	}
}
