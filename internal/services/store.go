package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface{ Scan(...interface{}) error }

func unixNano(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnixNano(n int64) time.Time { return time.Unix(0, n).UTC() }

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

const productColumns = "id, user_id, title, description, category, price, image_url, created_at"

// scanProduct scans the productColumns of a row.
func scanProduct(s scanner) (models.Product, error) {
	var p models.Product
	var createdAt int64
	err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Category, &p.Price, &p.ImageURL, &createdAt)
	if err != nil {
		return models.Product{}, err
	}
	p.CreatedAt = fromUnixNano(createdAt)
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// getProduct loads one listing through q, so it works inside transactions.
func getProduct(ctx context.Context, q querier, id string) (models.Product, error) {
	row := q.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Product{}, fmt.Errorf("listing %s: %w", id, ErrNotFound)
		}
		return models.Product{}, err
	}
	return p, nil
}
