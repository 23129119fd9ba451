// Package notify tells the outside world about completed checkouts.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/shopspring/decimal"
)

// Notifier is told about every completed checkout.
type Notifier interface {
	NotifyPurchases(ctx context.Context, buyer models.User, purchases []models.Purchase) error
}

// Nop discards every notification.
type Nop struct{}

// NotifyPurchases implements Notifier.
func (Nop) NotifyPurchases(context.Context, models.User, []models.Purchase) error { return nil }

// Multi fans a notification out to every notifier, collecting failures.
type Multi []Notifier

// NotifyPurchases implements Notifier.
func (m Multi) NotifyPurchases(ctx context.Context, buyer models.User, purchases []models.Purchase) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyPurchases(ctx, buyer, purchases); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Receipt summarises one checkout.
type Receipt struct {
	BuyerID     string          `json:"buyerId"`
	BuyerEmail  string          `json:"buyerEmail"`
	Lines       []ReceiptLine   `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	PurchasedAt time.Time       `json:"purchasedAt"`
}

// ReceiptLine is one purchase on a receipt.
type ReceiptLine struct {
	PurchaseID string          `json:"purchaseId"`
	ProductID  string          `json:"productId"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// NewReceipt builds the receipt for a checkout.
func NewReceipt(buyer models.User, purchases []models.Purchase) Receipt {
	r := Receipt{BuyerID: buyer.ID, BuyerEmail: buyer.Email, Lines: make([]ReceiptLine, 0, len(purchases))}
	for _, p := range purchases {
		r.Lines = append(r.Lines, ReceiptLine{
			PurchaseID: p.ID,
			ProductID:  p.ProductID,
			Title:      p.ProductTitle,
			Quantity:   p.Quantity,
			UnitPrice:  p.PriceAtPurchase,
		})
		r.Total = r.Total.Add(p.Total())
		if p.PurchasedAt.After(r.PurchasedAt) {
			r.PurchasedAt = p.PurchasedAt
		}
	}
	return r
}
