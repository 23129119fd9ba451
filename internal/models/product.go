package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultImageURL is shown for listings created without an image.
const DefaultImageURL = "/static/img/placeholder.svg"

// Categories is the fixed set a listing may belong to, in display order.
var Categories = []string{"Electronics", "Books", "Clothing", "Furniture", "Sports", "Other"}

// IsCategory reports whether c is one of Categories. Matching is exact.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is a listing owned by exactly one user.
type Product struct {
	ID          string          `json:"id"`
	UserID      string          `json:"ownerId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ProductFields are the owner-editable attributes of a listing.
type ProductFields struct {
	Title       string
	Description string
	Category    string
	Price       decimal.Decimal
	ImageURL    string
}

// NewProduct builds a listing for ownerID, stamping id and creation time.
func NewProduct(ownerID string, f ProductFields, now time.Time) Product {
	p := Product{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		CreatedAt: now.UTC(),
	}
	p.Apply(f)
	return p
}

// Apply overwrites the editable attributes, defaulting the image.
func (p *Product) Apply(f ProductFields) {
	p.Title = f.Title
	p.Description = f.Description
	p.Category = f.Category
	p.Price = f.Price.Round(2)
	p.ImageURL = f.ImageURL
	if p.ImageURL == "" {
		p.ImageURL = DefaultImageURL
	}
}
