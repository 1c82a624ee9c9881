package reservations

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE reservations SET is_active = FALSE
		WHERE is_active AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) SumLiveReserved(ctx context.Context, productID int64, sizeID *int64, excludeSession string, now time.Time) (int, error) {
	var total int
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reservations
		WHERE product_id = $1
		  AND size_id IS NOT DISTINCT FROM $2
		  AND session_id <> $3
		  AND is_active
		  AND expires_at > $4
	`, productID, postgres.NullInt64(sizeID), excludeSession, now).Scan(&total)
	return total, err
}

// Upsert relies on the unique index over (session_id, product_id,
// COALESCE(size_id, 0)). A repeated hold keeps its id and creation time.
func (r *PostgresRepository) Upsert(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO reservations (session_id, user_id, product_id, size_id, quantity, created_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (session_id, product_id, (COALESCE(size_id, 0)))
		DO UPDATE SET
			quantity = EXCLUDED.quantity,
			expires_at = EXCLUDED.expires_at,
			is_active = TRUE,
			user_id = COALESCE(EXCLUDED.user_id, reservations.user_id)
		RETURNING id, created_at
	`,
		res.SessionID,
		postgres.NullInt64(res.UserID),
		res.ProductID,
		postgres.NullInt64(res.SizeID),
		res.Quantity,
		res.CreatedAt,
		res.ExpiresAt,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.Active = true
	return res, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := scanReservation(postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, session_id, user_id, product_id, size_id, quantity, created_at, expires_at, is_active
		FROM reservations
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE reservations SET is_active = FALSE
		WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *PostgresRepository) DeactivateSession(ctx context.Context, sessionID string) (int64, error) {
	result, err := postgres.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE reservations SET is_active = FALSE
		WHERE session_id = $1 AND is_active
	`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT r.id, r.session_id, r.user_id, r.product_id, r.size_id, r.quantity,
		       r.created_at, r.expires_at, r.is_active, p.name, COALESCE(s.name, '')
		FROM reservations r
		JOIN products p ON p.id = r.product_id
		LEFT JOIN sizes s ON s.id = r.size_id
		WHERE r.is_active AND r.expires_at < $1
		ORDER BY r.expires_at
	`, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Reservation
	for rows.Next() {
		var (
			res            domain.Reservation
			userID, sizeID sql.NullInt64
		)
		if err := rows.Scan(&res.ID, &res.SessionID, &userID, &res.ProductID, &sizeID, &res.Quantity,
			&res.CreatedAt, &res.ExpiresAt, &res.Active, &res.ProductName, &res.SizeName); err != nil {
			return nil, err
		}
		res.UserID = postgres.Int64Ptr(userID)
		res.SizeID = postgres.Int64Ptr(sizeID)
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations WHERE is_active
	`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CountExpiringBefore(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations WHERE is_active AND expires_at < $1
	`, t).Scan(&n)
	return n, err
}

func scanReservation(row *sql.Row) (domain.Reservation, error) {
	var (
		res            domain.Reservation
		userID, sizeID sql.NullInt64
	)
	err := row.Scan(&res.ID, &res.SessionID, &userID, &res.ProductID, &sizeID, &res.Quantity,
		&res.CreatedAt, &res.ExpiresAt, &res.Active)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.UserID = postgres.Int64Ptr(userID)
	res.SizeID = postgres.Int64Ptr(sizeID)
	return res, nil
}
