package domain

import (
	"time"
)

// Product is one purchasable entry of the shop menu. IDs are human slugs
// ("bolen-keju"); prices are integer Rupiah, never fractional.
type Product struct {
	ID          string   `gorm:"primaryKey;size:64" json:"id"`
	Name        string   `gorm:"size:140;not null" json:"name"`
	Price       int64    `gorm:"not null;default:0" json:"price"`
	Description string   `gorm:"type:text" json:"description"`
	Emoji       string   `gorm:"size:16" json:"emoji"`
	Variants    []string `gorm:"type:jsonb;serializer:json" json:"variants,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Label is the display name for a chosen variant, e.g. "Bolen Keju Large".
func (p Product) Label(variant string) string {
	if variant == "" {
		return p.Name
	}
	return p.Name + " " + variant
}
