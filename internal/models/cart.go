package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one product in a user's cart. There is at most one row per
// (user, product) pair.
type CartItem struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// NewCartItem builds a cart row holding a single unit.
func NewCartItem(userID, productID string) CartItem {
	return CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
	}
}

// CartLine joins a cart row with the live listing it points at. Unavailable
// lines point at a listing that no longer exists and carry a zero Product.
type CartLine struct {
	Item        CartItem `json:"item"`
	Product     Product  `json:"product"`
	Unavailable bool     `json:"unavailable"`
}

// Subtotal is quantity times the current listing price.
func (l CartLine) Subtotal() decimal.Decimal {
	if l.Unavailable {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

// Cart is a user's cart priced at current listing prices.
type Cart struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// NewCart sums the lines into a priced cart.
func NewCart(lines []CartLine) Cart {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return Cart{Lines: lines, Total: total}
}

// IsEmpty reports whether the cart holds no rows.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
