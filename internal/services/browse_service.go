package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/isdelr/ecofinds/internal/models"
)

// ListingQuery filters the public catalogue. Empty fields do not restrict.
type ListingQuery struct {
	Text     string
	Category string
}

// BrowseServiceProvider defines the interface for catalogue reads.
type BrowseServiceProvider interface {
	Search(ctx context.Context, query ListingQuery) ([]models.Product, error)
}

// BrowseService answers read-only catalogue queries.
type BrowseService struct {
	db *sql.DB
}

// NewBrowseService creates a new BrowseService.
func NewBrowseService(db *sql.DB) *BrowseService {
	return &BrowseService{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns listings whose category equals query.Category and whose
// title contains query.Text (case-insensitive), newest first.
func (s *BrowseService) Search(ctx context.Context, query ListingQuery) ([]models.Product, error) {
	text := strings.TrimSpace(query.Text)
	category := strings.TrimSpace(query.Category)

	var where []string
	var args []interface{}
	if category != "" {
		where = append(where, "category = ?")
		args = append(args, category)
	}
	if text != "" {
		where = append(where, `unicode_lower(title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(text))+"%")
	}

	q := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}
