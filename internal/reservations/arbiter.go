// Package reservations arbitrates concurrent demand for finite stock by
// issuing short-lived holds. Availability for a session is total stock minus
// the live holds of every other session.
package reservations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const DefaultTTL = 5 * time.Minute

type Repository interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	SumLiveReserved(ctx context.Context, productID int64, sizeID *int64, excludeSession string, now time.Time) (int, error)
	Upsert(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	Get(ctx context.Context, id int64) (*domain.Reservation, error)
	Deactivate(ctx context.Context, id int64) error
	DeactivateSession(ctx context.Context, sessionID string) (int64, error)
	ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	CountActive(ctx context.Context) (int64, error)
	CountExpiringBefore(ctx context.Context, t time.Time) (int64, error)
}

type Catalog interface {
	Stock(ctx context.Context, productID int64, sizeID *int64) (domain.StockLevel, error)
}

type Arbiter struct {
	repo        Repository
	catalog     Catalog
	clock       clock.Clock
	ttl         time.Duration
	logger      *slog.Logger
	instruments *telemetry.Instruments
}

type Option func(*Arbiter)

func WithTTL(ttl time.Duration) Option {
	return func(a *Arbiter) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Arbiter) {
		a.logger = logger
	}
}

func WithInstruments(i *telemetry.Instruments) Option {
	return func(a *Arbiter) {
		a.instruments = i
	}
}

func NewArbiter(repo Repository, catalog Catalog, clk clock.Clock, opts ...Option) *Arbiter {
	a := &Arbiter{
		repo:    repo,
		catalog: catalog,
		clock:   clk,
		ttl:     DefaultTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type ReserveInput struct {
	SessionID string
	UserID    *int64
	ProductID int64
	SizeID    *int64
	Quantity  int
}

type ReserveResult struct {
	Reservation domain.Reservation
	// NewAvailable is the availability seen by other sessions once this hold
	// is counted.
	NewAvailable int
}

// Reserve creates or refreshes the caller's hold on a line. The expiry sweep,
// the availability read and the upsert are separate statements without a
// lock, so two sessions racing for the last units can both succeed.
func (a *Arbiter) Reserve(ctx context.Context, in ReserveInput) (ReserveResult, error) {
	if in.SessionID == "" {
		return ReserveResult{}, domain.ErrSessionRequired
	}
	if in.Quantity <= 0 {
		return ReserveResult{}, domain.ErrInvalidQuantity
	}

	if _, err := a.CleanupExpired(ctx); err != nil {
		return ReserveResult{}, err
	}

	now := a.clock.Now()
	available, err := a.available(ctx, in.ProductID, in.SizeID, in.SessionID, now)
	if err != nil {
		return ReserveResult{}, err
	}

	if in.Quantity > available {
		a.instruments.ReservationDenied(ctx)
		return ReserveResult{}, &domain.InsufficientAvailabilityError{
			Requested: in.Quantity,
			Available: max(available, 0),
		}
	}

	res, err := a.repo.Upsert(ctx, domain.Reservation{
		SessionID: in.SessionID,
		UserID:    in.UserID,
		ProductID: in.ProductID,
		SizeID:    in.SizeID,
		Quantity:  in.Quantity,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
		Active:    true,
	})
	if err != nil {
		return ReserveResult{}, err
	}

	a.instruments.ReservationGranted(ctx)
	a.logger.Info("reservation granted",
		"reservation_id", res.ID,
		"session_id", res.SessionID,
		"product_id", res.ProductID,
		"quantity", res.Quantity,
		"expires_at", res.ExpiresAt,
	)

	return ReserveResult{Reservation: res, NewAvailable: available - in.Quantity}, nil
}

// Release deactivates a single hold. Releasing an unknown or already inactive
// hold returns ErrReservationNotFound.
func (a *Arbiter) Release(ctx context.Context, id int64) error {
	if err := a.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	a.logger.Info("reservation released", "reservation_id", id)
	return nil
}

// ReleaseSession deactivates every active hold of a session.
func (a *Arbiter) ReleaseSession(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, nil
	}
	return a.repo.DeactivateSession(ctx, sessionID)
}

// CleanupExpired deactivates active holds whose expiry has passed.
func (a *Arbiter) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := a.repo.DeactivateExpired(ctx, a.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		a.instruments.ReservationsExpired(ctx, n)
		a.logger.Info("expired reservations cleaned", "count", n)
	}
	return n, nil
}

// PendingExpired lists holds the next sweep would deactivate.
func (a *Arbiter) PendingExpired(ctx context.Context) ([]domain.Reservation, error) {
	return a.repo.ListExpired(ctx, a.clock.Now())
}

type Stats struct {
	Active             int64
	ExpiringWithinHour int64
}

func (a *Arbiter) Stats(ctx context.Context) (Stats, error) {
	active, err := a.repo.CountActive(ctx)
	if err != nil {
		return Stats{}, err
	}
	soon, err := a.repo.CountExpiringBefore(ctx, a.clock.Now().Add(time.Hour))
	if err != nil {
		return Stats{}, err
	}
	return Stats{Active: active, ExpiringWithinHour: soon}, nil
}

// available is total stock minus the live holds of sessions other than
// sessionID. It can be negative when stock dropped below outstanding holds.
func (a *Arbiter) available(ctx context.Context, productID int64, sizeID *int64, sessionID string, now time.Time) (int, error) {
	level, err := a.catalog.Stock(ctx, productID, sizeID)
	if err != nil {
		return 0, err
	}
	reserved, err := a.repo.SumLiveReserved(ctx, productID, sizeID, sessionID, now)
	if err != nil {
		return 0, err
	}
	return level.Total - reserved, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrSizeNotFound)
}
