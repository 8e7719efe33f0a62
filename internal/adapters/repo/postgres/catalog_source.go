package postgres

import (
	"context"

	"github.com/andrifs/tokobolen/internal/domain"
)

// CatalogSource serves the catalog straight from the products table. Used
// when no external CATALOG_URL is configured; the catalog cache still fetches
// it only once per session.
type CatalogSource struct{ repo *ProductRepo }

func NewCatalogSource(repo *ProductRepo) *CatalogSource { return &CatalogSource{repo: repo} }

func (s *CatalogSource) Fetch(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}
