// Package seed loads a starting catalog from YAML into an empty product repository.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

//go:embed products.yaml
var defaultCatalog []byte

type file struct {
	Products []entry `yaml:"products"`
}

// entry keeps price as text so YAML floats never touch money.
type entry struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Unit  string `yaml:"unit"`
	Image string `yaml:"image"`
	Stock int64  `yaml:"stock"`
}

// Parse decodes a catalog file.
func Parse(data []byte) ([]domain.Product, error) {
	var f file
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	out := make([]domain.Product, 0, len(f.Products))
	for i, e := range f.Products {
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): bad price %q: %w", i, e.Name, e.Price, err)
		}
		if e.Name == "" || e.Unit == "" || price.IsNegative() || !price.Equal(price.Round(2)) || e.Stock < 0 {
			return nil, fmt.Errorf("product %d (%s): invalid entry", i, e.Name)
		}
		out = append(out, domain.Product{
			ID:    e.ID,
			Name:  e.Name,
			Price: price,
			Unit:  e.Unit,
			Image: e.Image,
			Stock: e.Stock,
		})
	}
	return out, nil
}

// Load reads path, or the embedded catalog when path is empty.
func Load(path string) ([]domain.Product, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed catalog: %w", err)
	}
	return Parse(data)
}

// Apply inserts products only when the repository holds none. It reports how many were inserted.
func Apply(ctx context.Context, repo repository.ProductRepository, tx repository.TxManager, products []domain.Product) (int, error) {
	inserted := 0
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := repo.List(ctx, repository.ProductFilter{})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for _, p := range products {
			p := p
			if err := repo.Create(ctx, &p); err != nil {
				return fmt.Errorf("seed %s: %w", p.Name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		slog.Info("Catalog seeded", "products", inserted)
	}
	return inserted, nil
}
