// Package catalog keeps the in-memory product list that carts and the
// storefront pages read from.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// Store is safe for concurrent use. Reads never touch the repository.
type Store struct {
	repo repository.ProductRepository

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
}

func New(repo repository.ProductRepository) *Store {
	return &Store{repo: repo, byID: make(map[string]int)}
}

// Refresh replaces the product list wholesale. On failure the previous list stays.
func (s *Store) Refresh(ctx context.Context) error {
	list, err := s.repo.List(ctx, repository.ProductFilter{})
	if err != nil {
		slog.Warn("catalog refresh failed", "error", err)
		return fmt.Errorf("refresh catalog: %w", err)
	}

	byID := make(map[string]int, len(list))
	for i, p := range list {
		byID[p.ID] = i
	}

	s.mu.Lock()
	s.products = list
	s.byID = byID
	s.mu.Unlock()

	slog.Debug("catalog refreshed", "products", len(list))
	return nil
}

// FindByID reports false for unknown ids; products may vanish while carts still reference them.
func (s *Store) FindByID(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// Products returns a copy in repository order.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
