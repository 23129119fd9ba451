package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
)

// ListingServiceProvider defines the interface for listing services.
type ListingServiceProvider interface {
	Create(ctx context.Context, ownerID string, input ListingInput) (models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	GetOwned(ctx context.Context, id, actorID string) (models.Product, error)
	Update(ctx context.Context, id, actorID string, input ListingInput) (models.Product, error)
	Delete(ctx context.Context, id, actorID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Product, error)
}

// ListingService provides business logic for product listings.
type ListingService struct {
	db     *sql.DB
	events EventServiceProvider
	now    func() time.Time
}

// NewListingService creates a new ListingService.
func NewListingService(db *sql.DB, events EventServiceProvider) *ListingService {
	return &ListingService{db: db, events: events, now: time.Now}
}

// Create adds a new listing owned by ownerID.
func (s *ListingService) Create(ctx context.Context, ownerID string, input ListingInput) (models.Product, error) {
	fields, err := input.fields()
	if err != nil {
		return models.Product{}, err
	}

	p := models.NewProduct(ownerID, fields, s.now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (id, user_id, title, description, category, price, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.Description, p.Category, p.Price.StringFixed(2), p.ImageURL, unixNano(p.CreatedAt))
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to insert listing: %w", err)
	}

	recordEvent(ctx, s.events, models.EventListingCreate, p.ID, fmt.Sprintf("Listed '%s'.", p.Title), ownerID)
	return p, nil
}

// Get retrieves a single listing by its ID.
func (s *ListingService) Get(ctx context.Context, id string) (models.Product, error) {
	return getProduct(ctx, s.db, id)
}

// GetOwned retrieves a listing only if actorID owns it.
func (s *ListingService) GetOwned(ctx context.Context, id, actorID string) (models.Product, error) {
	p, err := getProduct(ctx, s.db, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := authorizeOwner(p.UserID, actorID); err != nil {
		return models.Product{}, fmt.Errorf("listing %s: %w", id, err)
	}
	return p, nil
}

// Update overwrites the editable fields of a listing owned by actorID.
func (s *ListingService) Update(ctx context.Context, id, actorID string, input ListingInput) (models.Product, error) {
	p, err := s.GetOwned(ctx, id, actorID)
	if err != nil {
		return models.Product{}, err
	}

	fields, err := input.fields()
	if err != nil {
		return models.Product{}, err
	}
	p.Apply(fields)

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET title = ?, description = ?, category = ?, price = ?, image_url = ?
		WHERE id = ? AND user_id = ?`,
		p.Title, p.Description, p.Category, p.Price.StringFixed(2), p.ImageURL, id, actorID)
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to update listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Product{}, err
	}
	if n == 0 {
		return models.Product{}, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}

	recordEvent(ctx, s.events, models.EventListingUpdate, p.ID, fmt.Sprintf("Updated '%s'.", p.Title), actorID)
	return p, nil
}

// Delete removes a listing owned by actorID. Cart rows pointing at it are
// removed in the same transaction; purchase history is left alone.
func (s *ListingService) Delete(ctx context.Context, id, actorID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p, err := getProduct(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(p.UserID, actorID); err != nil {
		return fmt.Errorf("listing %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE product_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear cart rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	recordEvent(ctx, s.events, models.EventListingDelete, id, fmt.Sprintf("Deleted '%s'.", p.Title), actorID)
	return nil
}

// ListByOwner returns a user's listings, newest first.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE user_id = ? ORDER BY created_at DESC, rowid DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}
