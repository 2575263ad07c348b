package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const queryTimeout = 3 * time.Second

// PostgresSource loads the catalog from a products table. The position column
// keeps the catalog's insertion order stable across loads.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Fetch(ctx context.Context) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, category, price_cents, image
		FROM products
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer rows.Close()

	out := make([]Product, 0, 16)
	for rows.Next() {
		var (
			p        Product
			category sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &category, &p.PriceCents, &p.Image); err != nil {
			return nil, err
		}
		if category.Valid {
			p.Category = category.String
		}
		if p.PriceCents < 0 {
			return nil, fmt.Errorf("%w: product %s: negative price", ErrBadRecord, p.ID)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
