package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// ProductRepo is the admin-side persistence port for the catalog.
type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Delete(ctx context.Context, id string) error
}

// CatalogSource is the read-only catalog resource the storefront consumes.
// It is fetched at most once per session by the catalog cache.
type CatalogSource interface {
	Fetch(ctx context.Context) ([]Product, error)
}

// CartStorage is the single named slot holding the serialized cart list.
// Implementations read and write the whole list as a unit; an absent slot is
// an empty cart.
type CartStorage interface {
	Read() ([]CartItem, error)
	Write(items []CartItem) error
	Clear() error
}

// Shop is fixed configuration: display name and the WhatsApp number orders
// are handed off to.
type Shop struct {
	Name     string
	WANumber string
}
