package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/ecofinds/internal/models"
)

// CartServiceProvider defines the interface for cart services.
type CartServiceProvider interface {
	Add(ctx context.Context, userID, productID string) (models.CartItem, error)
	Remove(ctx context.Context, itemID, actorID string) error
	View(ctx context.Context, userID string) (models.Cart, error)
}

// CartService manages per-user carts.
type CartService struct {
	db *sql.DB
}

// NewCartService creates a new CartService.
func NewCartService(db *sql.DB) *CartService {
	return &CartService{db: db}
}

// Add puts one unit of a listing in the user's cart. A second add of the
// same listing bumps the quantity of the existing row.
func (s *CartService) Add(ctx context.Context, userID, productID string) (models.CartItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CartItem{}, err
	}
	defer tx.Rollback()

	if _, err := getProduct(ctx, tx, productID); err != nil {
		return models.CartItem{}, err
	}

	item := models.NewCartItem(userID, productID)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1`,
		item.ID, item.UserID, item.ProductID, item.Quantity)
	if err != nil {
		return models.CartItem{}, fmt.Errorf("failed to add to cart: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, product_id, quantity FROM cart_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity); err != nil {
		return models.CartItem{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.CartItem{}, err
	}
	return item, nil
}

// Remove deletes a cart row belonging to actorID.
func (s *CartService) Remove(ctx context.Context, itemID, actorID string) error {
	var ownerID string
	err := s.db.QueryRowContext(ctx, "SELECT user_id FROM cart_items WHERE id = ?", itemID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return err
	}
	if err := authorizeOwner(ownerID, actorID); err != nil {
		return fmt.Errorf("cart item %s: %w", itemID, err)
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ? AND user_id = ?", itemID, actorID)
	return err
}

// View returns the user's cart priced at current listing prices. Rows whose
// listing no longer exists are kept and marked unavailable so they can be
// removed.
func (s *CartService) View(ctx context.Context, userID string) (models.Cart, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.product_id, c.quantity, p.id IS NULL,
		       COALESCE(p.id, ''), COALESCE(p.user_id, ''), COALESCE(p.title, ''), COALESCE(p.description, ''),
		       COALESCE(p.category, ''), COALESCE(p.price, '0'), COALESCE(p.image_url, ''), COALESCE(p.created_at, 0)
		FROM cart_items c LEFT JOIN products p ON p.id = c.product_id
		WHERE c.user_id = ? ORDER BY c.rowid`, userID)
	if err != nil {
		return models.Cart{}, err
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		var createdAt int64
		p := &line.Product
		err := rows.Scan(
			&line.Item.ID, &line.Item.UserID, &line.Item.ProductID, &line.Item.Quantity, &line.Unavailable,
			&p.ID, &p.UserID, &p.Title, &p.Description, &p.Category, &p.Price, &p.ImageURL, &createdAt,
		)
		if err != nil {
			return models.Cart{}, err
		}
		if !line.Unavailable {
			p.CreatedAt = fromUnixNano(createdAt)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return models.Cart{}, err
	}
	return models.NewCart(lines), nil
}
