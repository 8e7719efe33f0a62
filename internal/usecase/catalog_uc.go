package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andrifs/tokobolen/internal/domain"
)

// CatalogUC caches the product catalog for the lifetime of a session. The
// source is consulted exactly once: the first call populates the cache with
// the fetched list, or with the empty list when the fetch fails. Failures are
// logged and never surfaced to the shopper.
type CatalogUC struct {
	Source domain.CatalogSource

	mu       sync.Mutex
	loaded   bool
	products []domain.Product
}

func NewCatalogUC(src domain.CatalogSource) *CatalogUC {
	return &CatalogUC{Source: src}
}

// Products returns the cached catalog, fetching it on first use.
func (uc *CatalogUC) Products(ctx context.Context) []domain.Product {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.loaded {
		return uc.products
	}
	list, err := uc.Source.Fetch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("catalog fetch")
		list = []domain.Product{}
	}
	if list == nil {
		list = []domain.Product{}
	}
	uc.products = list
	uc.loaded = true
	return uc.products
}

// ByID looks a product up in the cached catalog.
func (uc *CatalogUC) ByID(ctx context.Context, id string) (domain.Product, bool) {
	for _, p := range uc.Products(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Invalidate drops the cache so the next read refetches. Only admin catalog
// writes call this; the storefront path never refreshes mid-session.
func (uc *CatalogUC) Invalidate() {
	uc.mu.Lock()
	uc.loaded = false
	uc.products = nil
	uc.mu.Unlock()
}
