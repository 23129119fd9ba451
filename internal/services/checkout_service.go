package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/rs/zerolog/log"
)

// PurchaseNotifier is told about every completed checkout.
type PurchaseNotifier interface {
	NotifyPurchases(ctx context.Context, buyer models.User, purchases []models.Purchase) error
}

// CheckoutServiceProvider defines the interface for checkout services.
type CheckoutServiceProvider interface {
	Checkout(ctx context.Context, userID string) ([]models.Purchase, error)
	History(ctx context.Context, userID string) ([]models.Purchase, error)
}

// CheckoutService turns carts into purchase records.
type CheckoutService struct {
	db       *sql.DB
	users    UserServiceProvider
	events   EventServiceProvider
	notifier PurchaseNotifier
	now      func() time.Time
}

// NewCheckoutService creates a new CheckoutService. notifier may be nil.
func NewCheckoutService(db *sql.DB, users UserServiceProvider, events EventServiceProvider, notifier PurchaseNotifier) *CheckoutService {
	return &CheckoutService{db: db, users: users, events: events, notifier: notifier, now: time.Now}
}

// notifyTimeout bounds how long a checkout request waits on notifiers.
const notifyTimeout = 5 * time.Second

// Checkout converts every row of the user's cart into a purchase at the
// listing's current price and empties the cart, all in one transaction.
// If any listing has disappeared the whole checkout is rolled back.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) ([]models.Purchase, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	items, err := cartItems(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	purchases := make([]models.Purchase, 0, len(items))
	for _, item := range items {
		product, err := getProduct(ctx, tx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}

		p := models.NewPurchase(userID, product, item.Quantity, now)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchases (id, user_id, product_id, product_title, quantity, price_at_purchase, purchased_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.ProductID, p.ProductTitle, p.Quantity, p.PriceAtPurchase.StringFixed(2), unixNano(p.PurchasedAt))
		if err != nil {
			return nil, fmt.Errorf("failed to record purchase: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ?", item.ID); err != nil {
			return nil, fmt.Errorf("failed to clear cart row: %w", err)
		}
		purchases = append(purchases, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	recordEvent(ctx, s.events, models.EventCartCheckout, "", fmt.Sprintf("Checked out %d item(s).", len(purchases)), userID)
	s.notify(ctx, userID, purchases)
	return purchases, nil
}

// notify runs the notifier after commit; its failures are logged only.
func (s *CheckoutService) notify(ctx context.Context, userID string, purchases []models.Purchase) {
	if s.notifier == nil {
		return
	}

	buyer, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Skipping purchase notification, buyer lookup failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyPurchases(ctx, buyer, purchases); err != nil {
		log.Error().Err(err).Str("user_id", userID).Int("purchases", len(purchases)).Msg("Failed to send purchase notification")
	}
}

// History lists a user's purchases, newest first.
func (s *CheckoutService) History(ctx context.Context, userID string) ([]models.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, product_title, quantity, price_at_purchase, purchased_at
		FROM purchases WHERE user_id = ? ORDER BY purchased_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		var p models.Purchase
		var purchasedAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &p.ProductTitle, &p.Quantity, &p.PriceAtPurchase, &purchasedAt); err != nil {
			return nil, err
		}
		p.PurchasedAt = fromUnixNano(purchasedAt)
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// cartItems reads the whole cart before returning so the caller can issue
// further statements on the same connection.
func cartItems(ctx context.Context, q querier, userID string) ([]models.CartItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, user_id, product_id, quantity FROM cart_items WHERE user_id = ? ORDER BY rowid", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
