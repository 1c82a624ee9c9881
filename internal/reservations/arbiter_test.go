package reservations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/domain"
)

var now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestArbiter(repo *fakeRepo, catalog *fakeCatalog, clk clock.Clock) *Arbiter {
	return NewArbiter(repo, catalog, clk,
		WithTTL(5*time.Minute),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestArbiter_Reserve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("grants up to total stock", func(t *testing.T) {
		repo := newFakeRepo()
		a := newTestArbiter(repo, newFakeCatalog().with(1, nil, 5), clock.NewFixed(now))

		result, err := a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, Quantity: 3})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.NewAvailable != 2 {
			t.Errorf("expected new available 2, got %d", result.NewAvailable)
		}
		if !result.Reservation.ExpiresAt.Equal(now.Add(5 * time.Minute)) {
			t.Errorf("expected expiry %v, got %v", now.Add(5*time.Minute), result.Reservation.ExpiresAt)
		}
		if repo.sweeps != 1 {
			t.Errorf("expected expiry sweep before reserving, got %d sweeps", repo.sweeps)
		}
	})

	t.Run("refuses more than available without touching rows", func(t *testing.T) {
		repo := newFakeRepo(domain.Reservation{
			SessionID: "other", ProductID: 1, Quantity: 4, Active: true, ExpiresAt: now.Add(time.Minute),
		})
		a := newTestArbiter(repo, newFakeCatalog().with(1, nil, 5), clock.NewFixed(now))

		_, err := a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, Quantity: 2})

		var availErr *domain.InsufficientAvailabilityError
		if !errors.As(err, &availErr) {
			t.Fatalf("expected InsufficientAvailabilityError, got %v", err)
		}
		if availErr.Available != 1 {
			t.Errorf("expected available 1, got %d", availErr.Available)
		}
		if repo.count("a", 1, nil) != 0 {
			t.Error("expected no reservation row for refused request")
		}
	})

	t.Run("re-reserving updates the existing row", func(t *testing.T) {
		repo := newFakeRepo()
		current := now
		a := newTestArbiter(repo, newFakeCatalog().with(1, int64Ptr(2), 1).with(1, nil, 10), clock.Func(func() time.Time { return current }))

		first, err := a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, SizeID: int64Ptr(2), Quantity: 3})
		if err == nil {
			t.Fatalf("expected size-level stock of 1 to refuse 3, got %+v", first)
		}

		first, err = a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, Quantity: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		current = now.Add(2 * time.Minute)
		second, err := a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, Quantity: 6})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if second.Reservation.ID != first.Reservation.ID {
			t.Errorf("expected same reservation id %d, got %d", first.Reservation.ID, second.Reservation.ID)
		}
		if second.Reservation.Quantity != 6 {
			t.Errorf("expected quantity 6, got %d", second.Reservation.Quantity)
		}
		if !second.Reservation.ExpiresAt.Equal(current.Add(5 * time.Minute)) {
			t.Errorf("expected refreshed expiry, got %v", second.Reservation.ExpiresAt)
		}
		if n := repo.count("a", 1, nil); n != 1 {
			t.Errorf("expected one row, got %d", n)
		}
	})

	t.Run("own holds do not count against the caller", func(t *testing.T) {
		repo := newFakeRepo(domain.Reservation{
			SessionID: "a", ProductID: 1, Quantity: 5, Active: true, ExpiresAt: now.Add(time.Minute),
		})
		a := newTestArbiter(repo, newFakeCatalog().with(1, nil, 5), clock.NewFixed(now))

		if _, err := a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, Quantity: 5}); err != nil {
			t.Errorf("expected own hold to be replaceable, got %v", err)
		}
	})

	t.Run("expired holds of others are swept and ignored", func(t *testing.T) {
		repo := newFakeRepo(domain.Reservation{
			SessionID: "other", ProductID: 1, Quantity: 5, Active: true, ExpiresAt: now.Add(-time.Second),
		})
		a := newTestArbiter(repo, newFakeCatalog().with(1, nil, 5), clock.NewFixed(now))

		result, err := a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, Quantity: 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.NewAvailable != 0 {
			t.Errorf("expected new available 0, got %d", result.NewAvailable)
		}
		if active, _ := repo.CountActive(ctx); active != 1 {
			t.Errorf("expected only the new hold active, got %d", active)
		}
	})

	t.Run("negative availability reports zero", func(t *testing.T) {
		repo := newFakeRepo(domain.Reservation{
			SessionID: "other", ProductID: 1, Quantity: 7, Active: true, ExpiresAt: now.Add(time.Minute),
		})
		a := newTestArbiter(repo, newFakeCatalog().with(1, nil, 5), clock.NewFixed(now))

		_, err := a.Reserve(ctx, ReserveInput{SessionID: "a", ProductID: 1, Quantity: 1})
		var availErr *domain.InsufficientAvailabilityError
		if !errors.As(err, &availErr) || availErr.Available != 0 {
			t.Errorf("expected available 0, got %v", err)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		a := newTestArbiter(newFakeRepo(), newFakeCatalog().with(1, nil, 5), clock.NewFixed(now))

		tests := []struct {
			name string
			in   ReserveInput
			want error
		}{
			{"no session", ReserveInput{ProductID: 1, Quantity: 1}, domain.ErrSessionRequired},
			{"zero quantity", ReserveInput{SessionID: "a", ProductID: 1}, domain.ErrInvalidQuantity},
			{"unknown product", ReserveInput{SessionID: "a", ProductID: 9, Quantity: 1}, domain.ErrProductNotFound},
			{"unknown size", ReserveInput{SessionID: "a", ProductID: 1, SizeID: int64Ptr(9), Quantity: 1}, domain.ErrSizeNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := a.Reserve(ctx, tt.in); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestArbiter_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := newTestArbiter(newFakeRepo(), newFakeCatalog().with(1, nil, 5), clock.NewFixed(now))

	held, err := a.Reserve(ctx, ReserveInput{SessionID: "A", ProductID: 1, Quantity: 5})
	if err != nil {
		t.Fatalf("session A reserve: %v", err)
	}
	if held.NewAvailable != 0 {
		t.Fatalf("expected available 0 after A, got %d", held.NewAvailable)
	}

	_, err = a.Reserve(ctx, ReserveInput{SessionID: "B", ProductID: 1, Quantity: 1})
	var availErr *domain.InsufficientAvailabilityError
	if !errors.As(err, &availErr) || availErr.Available != 0 {
		t.Fatalf("expected B to be refused with available 0, got %v", err)
	}

	if err := a.Release(ctx, held.Reservation.ID); err != nil {
		t.Fatalf("session A release: %v", err)
	}

	retry, err := a.Reserve(ctx, ReserveInput{SessionID: "B", ProductID: 1, Quantity: 1})
	if err != nil {
		t.Fatalf("session B retry: %v", err)
	}
	if retry.NewAvailable != 4 {
		t.Errorf("expected available 4 after B, got %d", retry.NewAvailable)
	}
}

func TestArbiter_Release(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newFakeRepo(
		domain.Reservation{SessionID: "a", ProductID: 1, Quantity: 1, Active: true, ExpiresAt: now.Add(time.Minute)},
		domain.Reservation{SessionID: "a", ProductID: 2, Quantity: 1, Active: true, ExpiresAt: now.Add(time.Minute)},
	)
	a := newTestArbiter(repo, newFakeCatalog(), clock.NewFixed(now))

	if err := a.Release(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Release(ctx, 1); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Errorf("expected second release to return not found, got %v", err)
	}
	if err := a.Release(ctx, 99); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Errorf("expected unknown id to return not found, got %v", err)
	}

	n, err := a.ReleaseSession(ctx, "a")
	if err != nil || n != 1 {
		t.Errorf("expected 1 released for session, got %d, %v", n, err)
	}
}

func TestArbiter_CleanupExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newFakeRepo(
		domain.Reservation{SessionID: "a", ProductID: 1, Quantity: 1, Active: true, ExpiresAt: now.Add(-time.Minute)},
		domain.Reservation{SessionID: "b", ProductID: 1, Quantity: 1, Active: true, ExpiresAt: now.Add(-time.Second)},
		domain.Reservation{SessionID: "c", ProductID: 1, Quantity: 1, Active: true, ExpiresAt: now.Add(30 * time.Minute)},
		domain.Reservation{SessionID: "d", ProductID: 1, Quantity: 1, Active: false, ExpiresAt: now.Add(-time.Hour)},
	)
	a := newTestArbiter(repo, newFakeCatalog(), clock.NewFixed(now))

	pending, err := a.PendingExpired(ctx)
	if err != nil || len(pending) != 2 {
		t.Fatalf("expected 2 pending expired, got %d, %v", len(pending), err)
	}

	stats, err := a.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Active != 3 || stats.ExpiringWithinHour != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	n, err := a.CleanupExpired(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 cleaned, got %d, %v", n, err)
	}
	n, _ = a.CleanupExpired(ctx)
	if n != 0 {
		t.Errorf("expected second sweep to clean nothing, got %d", n)
	}
}
