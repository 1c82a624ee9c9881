package reservations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.Reservation
	sweeps int
}

func newFakeRepo(rows ...domain.Reservation) *fakeRepo {
	r := &fakeRepo{rows: make(map[int64]*domain.Reservation)}
	for _, row := range rows {
		row := row
		r.nextID++
		if row.ID == 0 {
			row.ID = r.nextID
		}
		r.rows[row.ID] = &row
	}
	return r
}

func sameSize(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweeps++
	var n int64
	for _, row := range r.rows {
		if row.Active && row.ExpiresAt.Before(now) {
			row.Active = false
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) SumLiveReserved(_ context.Context, productID int64, sizeID *int64, excludeSession string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, row := range r.rows {
		if row.ProductID == productID && sameSize(row.SizeID, sizeID) && row.SessionID != excludeSession && row.Live(now) {
			total += row.Quantity
		}
	}
	return total, nil
}

func (r *fakeRepo) Upsert(_ context.Context, res domain.Reservation) (domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.SessionID == res.SessionID && row.ProductID == res.ProductID && sameSize(row.SizeID, res.SizeID) {
			row.Quantity = res.Quantity
			row.ExpiresAt = res.ExpiresAt
			row.Active = true
			if res.UserID != nil {
				row.UserID = res.UserID
			}
			return *row, nil
		}
	}

	r.nextID++
	res.ID = r.nextID
	res.Active = true
	r.rows[res.ID] = &res
	return res, nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeRepo) Deactivate(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok || !row.Active {
		return domain.ErrReservationNotFound
	}
	row.Active = false
	return nil
}

func (r *fakeRepo) DeactivateSession(_ context.Context, sessionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, row := range r.rows {
		if row.SessionID == sessionID && row.Active {
			row.Active = false
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) ListExpired(_ context.Context, now time.Time) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Reservation
	for _, row := range r.rows {
		if row.Active && row.ExpiresAt.Before(now) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) CountActive(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, row := range r.rows {
		if row.Active {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CountExpiringBefore(_ context.Context, t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, row := range r.rows {
		if row.Active && row.ExpiresAt.Before(t) {
			n++
		}
	}
	return n, nil
}

// count returns the number of rows for a (session, product, size) line.
func (r *fakeRepo) count(sessionID string, productID int64, sizeID *int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, row := range r.rows {
		if row.SessionID == sessionID && row.ProductID == productID && sameSize(row.SizeID, sizeID) {
			n++
		}
	}
	return n
}

type stockKey struct {
	productID int64
	sizeID    int64
}

type fakeCatalog struct {
	stock map[stockKey]int
	sizes map[int64]bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{stock: make(map[stockKey]int), sizes: make(map[int64]bool)}
}

func (c *fakeCatalog) with(productID int64, sizeID *int64, total int) *fakeCatalog {
	var sid int64
	if sizeID != nil {
		sid = *sizeID
		c.sizes[sid] = true
	}
	c.stock[stockKey{productID, sid}] = total
	return c
}

func (c *fakeCatalog) Stock(_ context.Context, productID int64, sizeID *int64) (domain.StockLevel, error) {
	total, ok := c.stock[stockKey{productID, 0}]
	if !ok {
		return domain.StockLevel{}, domain.ErrProductNotFound
	}
	level := domain.StockLevel{ProductID: productID, SizeID: sizeID, ProductName: "Product", Total: total}
	if sizeID == nil {
		return level, nil
	}
	if !c.sizes[*sizeID] {
		return domain.StockLevel{}, domain.ErrSizeNotFound
	}
	if sizeTotal, ok := c.stock[stockKey{productID, *sizeID}]; ok {
		level.Total = sizeTotal
		level.SizeLevel = true
	}
	return level, nil
}

func int64Ptr(v int64) *int64 { return &v }
