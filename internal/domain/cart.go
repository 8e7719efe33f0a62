package domain

import "strings"

// PlaceholderEmoji is shown for cart lines whose product no longer resolves
// in the catalog.
const PlaceholderEmoji = "🍽️"

// CartItem is the persisted form of one cart line: a (product, variant) pair
// and its quantity. At most one item per Key exists in a stored cart, and
// Qty is always >= 1 after a write.
type CartItem struct {
	Key       string `json:"key"`
	ProductID string `json:"productId"`
	Variant   string `json:"variant,omitempty"`
	Qty       int    `json:"qty"`
}

// CartLine is a CartItem joined against the catalog for display. It is
// derived on every read and never persisted.
type CartLine struct {
	Key       string
	ProductID string
	Variant   string
	Label     string
	Emoji     string
	Qty       int
	Price     int64
}

func (l CartLine) Subtotal() int64 { return l.Price * int64(l.Qty) }

// ItemKey builds the composite uniqueness key for a (product, variant) pair.
func ItemKey(productID, variant string) string {
	return productID + "::" + variant
}

// NormalizeQty floors any quantity to 1. Invalid user input is coerced, not
// rejected.
func NormalizeQty(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}

// Enrich joins a persisted item against a catalog lookup. Unknown products
// degrade to the raw id, a placeholder glyph and price zero; the line stays
// removable.
func (i CartItem) Enrich(lookup func(id string) (Product, bool)) CartLine {
	line := CartLine{Key: i.Key, ProductID: i.ProductID, Variant: i.Variant, Qty: i.Qty}
	if p, ok := lookup(i.ProductID); ok {
		line.Label = p.Label(i.Variant)
		line.Emoji = p.Emoji
		line.Price = p.Price
	} else {
		line.Label = strings.TrimSpace(i.ProductID + " " + i.Variant)
		if line.Label == "" {
			line.Label = i.ProductID
		}
	}
	if line.Emoji == "" {
		line.Emoji = PlaceholderEmoji
	}
	return line
}
