package catalog

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

func (r *Repository) Product(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, price, stock, available
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Stock resolves the stock a (product, size) line is measured against. A size
// that exists but has no per-product row falls back to the product count.
func (r *Repository) Stock(ctx context.Context, productID int64, sizeID *int64) (domain.StockLevel, error) {
	p, err := r.Product(ctx, productID)
	if err != nil {
		return domain.StockLevel{}, err
	}

	level := domain.StockLevel{
		ProductID:   p.ID,
		SizeID:      sizeID,
		ProductName: p.Name,
		Price:       p.Price,
		Total:       p.Stock,
	}
	if sizeID == nil {
		return level, nil
	}

	var sizeStock sql.NullInt64
	err = postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT s.name, ps.stock
		FROM sizes s
		LEFT JOIN product_sizes ps ON ps.size_id = s.id AND ps.product_id = $1
		WHERE s.id = $2
	`, productID, *sizeID).Scan(&level.SizeName, &sizeStock)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StockLevel{}, domain.ErrSizeNotFound
	}
	if err != nil {
		return domain.StockLevel{}, err
	}

	if sizeStock.Valid {
		level.Total = int(sizeStock.Int64)
		level.SizeLevel = true
	}
	return level, nil
}

// Decrement lowers persistent stock for a sold line, on the size row when
// one exists and on the product otherwise. A count that would go negative is
// rejected by the CHECK constraint and reported as ErrInsufficientStock.
func (r *Repository) Decrement(ctx context.Context, productID int64, sizeID *int64, quantity int) error {
	conn := postgres.Conn(ctx, r.db)

	if sizeID != nil {
		result, err := conn.ExecContext(ctx, `
			UPDATE product_sizes SET stock = stock - $3
			WHERE product_id = $1 AND size_id = $2
		`, productID, *sizeID, quantity)
		if err != nil {
			return stockError(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
	}

	result, err := conn.ExecContext(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1
	`, productID, quantity)
	if err != nil {
		return stockError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func stockError(err error) error {
	if postgres.IsCheckViolation(err) {
		return domain.ErrInsufficientStock
	}
	return err
}
