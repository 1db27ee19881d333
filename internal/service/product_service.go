package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// ProductService is the admin side of the catalog. Every change reloads the
// storefront catalog.
type ProductService struct {
	repo    repository.ProductRepository
	catalog Refresher
	events  *EventPublisher
}

func NewProductService(repo repository.ProductRepository, catalog Refresher, events *EventPublisher) *ProductService {
	return &ProductService{repo: repo, catalog: catalog, events: events}
}

// validProduct accepts prices in whole cents only; stored prices keep two decimals.
func validProduct(p domain.Product) bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Unit) != "" &&
		!p.Price.IsNegative() && p.Price.Equal(p.Price.Round(2)) && p.Stock >= 0
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if !validProduct(p) {
		return nil, ErrInvalidInput
	}
	cp := p
	if err := s.repo.Create(ctx, &cp); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	s.changed(ctx, cp.ID)
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *ProductService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" || !validProduct(p) {
		return nil, ErrInvalidInput
	}
	cp := p
	if err := s.repo.Update(ctx, &cp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.changed(ctx, cp.ID)
	return &cp, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	s.changed(ctx, id)
	return nil
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, f)
}

// changed refreshes the local catalog and tells other instances to do the same.
// A failed refresh keeps the old list and is logged by the catalog.
func (s *ProductService) changed(ctx context.Context, id string) {
	if s.catalog != nil {
		_ = s.catalog.Refresh(ctx)
	}
	s.events.Publish(ctx, id, domain.CatalogChanged{ProductID: id, ChangedAt: time.Now().UTC()})
}
