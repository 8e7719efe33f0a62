package usecase

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/andrifs/tokobolen/internal/cartview"
	"github.com/andrifs/tokobolen/internal/domain"
)

// CartUC owns the persisted cart list. Every operation reads the whole list,
// mutates it, writes it back as a unit and then refreshes the registered view
// sinks, so counters and the drawer never lag a mutation. The cart is
// best-effort durable: unreadable storage means an empty cart, failed writes
// are logged and dropped.
type CartUC struct {
	Catalog *CatalogUC
	Sinks   *cartview.Sinks
}

func NewCartUC(catalog *CatalogUC, sinks *cartview.Sinks) *CartUC {
	return &CartUC{Catalog: catalog, Sinks: sinks}
}

// Add puts qty units of a (product, variant) pair in the cart. An existing
// line with the same key accumulates; qty is floored to 1.
func (uc *CartUC) Add(ctx context.Context, store domain.CartStorage, productID, variant string, qty int) []domain.CartLine {
	qty = domain.NormalizeQty(qty)
	key := domain.ItemKey(productID, variant)
	raw := uc.read(store)
	found := false
	for i := range raw {
		if raw[i].Key == key {
			raw[i].Qty += qty
			found = true
			break
		}
	}
	if !found {
		raw = append(raw, domain.CartItem{Key: key, ProductID: productID, Variant: variant, Qty: qty})
	}
	uc.write(store, raw)
	return uc.refresh(ctx, raw)
}

// UpdateQty overwrites the quantity of an existing line, flooring any invalid
// value to 1. Unknown keys are a no-op.
func (uc *CartUC) UpdateQty(ctx context.Context, store domain.CartStorage, key string, qty int) []domain.CartLine {
	raw := uc.read(store)
	for i := range raw {
		if raw[i].Key == key {
			raw[i].Qty = domain.NormalizeQty(qty)
			break
		}
	}
	uc.write(store, raw)
	return uc.refresh(ctx, raw)
}

// Remove drops the line with the given key. Removing an absent key is a
// no-op.
func (uc *CartUC) Remove(ctx context.Context, store domain.CartStorage, key string) []domain.CartLine {
	raw := uc.read(store)
	kept := raw[:0]
	for _, it := range raw {
		if it.Key != key {
			kept = append(kept, it)
		}
	}
	uc.write(store, kept)
	return uc.refresh(ctx, kept)
}

// Clear empties the cart.
func (uc *CartUC) Clear(ctx context.Context, store domain.CartStorage) []domain.CartLine {
	if err := store.Clear(); err != nil {
		log.Error().Err(err).Msg("cart clear")
	}
	return uc.refresh(ctx, nil)
}

// Items returns the enriched cart without mutating anything.
func (uc *CartUC) Items(ctx context.Context, store domain.CartStorage) []domain.CartLine {
	return uc.enrich(ctx, uc.read(store))
}

// Total is the sum of price*qty over the enriched cart, recomputed per call.
func (uc *CartUC) Total(ctx context.Context, store domain.CartStorage) int64 {
	var total int64
	for _, l := range uc.Items(ctx, store) {
		total += l.Subtotal()
	}
	return total
}

func (uc *CartUC) read(store domain.CartStorage) []domain.CartItem {
	items, err := store.Read()
	if err != nil {
		log.Warn().Err(err).Msg("cart read, treating as empty")
		return nil
	}
	return items
}

func (uc *CartUC) write(store domain.CartStorage, items []domain.CartItem) {
	if err := store.Write(items); err != nil {
		log.Error().Err(err).Msg("cart write dropped")
	}
}

func (uc *CartUC) enrich(ctx context.Context, raw []domain.CartItem) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(raw))
	for _, it := range raw {
		lines = append(lines, it.Enrich(func(id string) (domain.Product, bool) {
			return uc.Catalog.ByID(ctx, id)
		}))
	}
	return lines
}

func (uc *CartUC) refresh(ctx context.Context, raw []domain.CartItem) []domain.CartLine {
	lines := uc.enrich(ctx, raw)
	uc.Sinks.Refresh(cartview.Build(lines))
	return lines
}
