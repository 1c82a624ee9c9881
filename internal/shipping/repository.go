package shipping

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindActive matches name case-insensitively against active governorates.
func (r *Repository) FindActive(ctx context.Context, name string) (*domain.Governorate, error) {
	var g domain.Governorate
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, shipping_cost, is_active
		FROM governorates
		WHERE LOWER(name) = LOWER($1) AND is_active
	`, name).Scan(&g.ID, &g.Name, &g.ShippingCost, &g.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]domain.Governorate, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, name, shipping_cost, is_active
		FROM governorates
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Governorate{}
	for rows.Next() {
		var g domain.Governorate
		if err := rows.Scan(&g.ID, &g.Name, &g.ShippingCost, &g.Active); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
