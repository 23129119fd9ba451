package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is an immutable record of a checked-out cart row. Title and price
// are copied from the listing at checkout time and never change afterwards,
// even if the listing is edited or deleted.
type Purchase struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	ProductID       string          `json:"productId"`
	ProductTitle    string          `json:"productTitle"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	PurchasedAt     time.Time       `json:"purchasedAt"`
}

// NewPurchase snapshots product for userID.
func NewPurchase(userID string, product Product, quantity int, now time.Time) Purchase {
	return Purchase{
		ID:              uuid.New().String(),
		UserID:          userID,
		ProductID:       product.ID,
		ProductTitle:    product.Title,
		Quantity:        quantity,
		PriceAtPurchase: product.Price,
		PurchasedAt:     now.UTC(),
	}
}

// Total is the unit price times quantity.
func (p Purchase) Total() decimal.Decimal {
	return p.PriceAtPurchase.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
