package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return postgres.WithTx(ctx, r.db, fn)
}

const orderColumns = `
	id, first_name, last_name, email, address, city, postal_code, phone, governorate,
	subtotal, shipping_cost, total, status, paid, created_at, updated_at`

// Create inserts the order and its items. Callers wrap it in WithTx together
// with the stock decrements.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	conn := postgres.Conn(ctx, r.db)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, first_name, last_name, email, address, city, postal_code,
		                    phone, governorate, subtotal, shipping_cost, total, status, paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		order.ID, order.SessionID, order.FirstName, order.LastName, order.Email, order.Address,
		order.City, order.PostalCode, order.Phone, order.Governorate,
		order.Subtotal, order.ShippingCost, order.Total, order.Status, order.Paid,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		err := conn.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, price, quantity, size_id, size_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`,
			order.ID, postgres.NullInt64(item.ProductID), item.ProductName, item.Price,
			item.Quantity, postgres.NullInt64(item.SizeID), item.SizeName,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	conn := postgres.Conn(ctx, r.db)

	order, err := scanOrder(conn.QueryRowContext(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT order_id, id, product_id, product_name, price, quantity, size_id, size_name
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		_, item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// List loads orders newest first and their items in a single batched query.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	conn := postgres.Conn(ctx, r.db)

	rows, err := conn.QueryContext(ctx, `SELECT`+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := conn.QueryContext(ctx, `
		SELECT order_id, id, product_id, product_name, price, quantity, size_id, size_name
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		orderID, item, err := scanItem(itemRows)
		if err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		order       domain.Order
		postalCode  sql.NullString
		governorate sql.NullString
	)
	err := row.Scan(
		&order.ID, &order.FirstName, &order.LastName, &order.Email, &order.Address, &order.City,
		&postalCode, &order.Phone, &governorate,
		&order.Subtotal, &order.ShippingCost, &order.Total, &order.Status, &order.Paid,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.PostalCode = postalCode.String
	order.Governorate = governorate.String
	return &order, nil
}

func scanItem(row scanner) (string, domain.OrderItem, error) {
	var (
		orderID           string
		item              domain.OrderItem
		productID, sizeID sql.NullInt64
		sizeName          sql.NullString
	)
	if err := row.Scan(&orderID, &item.ID, &productID, &item.ProductName, &item.Price,
		&item.Quantity, &sizeID, &sizeName); err != nil {
		return "", domain.OrderItem{}, err
	}
	item.ProductID = postgres.Int64Ptr(productID)
	item.SizeID = postgres.Int64Ptr(sizeID)
	item.SizeName = sizeName.String
	return orderID, item, nil
}
