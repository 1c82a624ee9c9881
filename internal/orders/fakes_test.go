package orders

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type product struct {
	name  string
	price decimal.Decimal
	stock int
	sizes map[int64]int
}

// fakeStore implements Repository and Catalog over shared state so WithTx can
// roll both back together.
type fakeStore struct {
	mu        sync.Mutex
	products  map[int64]*product
	sizeNames map[int64]string
	orders    map[string]domain.Order
	failNext  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[int64]*product),
		sizeNames: map[int64]string{1: "S", 2: "M", 3: "L"},
		orders:    make(map[string]domain.Order),
	}
}

func (s *fakeStore) addProduct(id int64, name string, price int64, stock int, sizes map[int64]int) {
	s.products[id] = &product{name: name, price: decimal.NewFromInt(price), stock: stock, sizes: sizes}
}

func (s *fakeStore) snapshot() (map[int64]product, map[string]domain.Order) {
	products := make(map[int64]product, len(s.products))
	for id, p := range s.products {
		cp := *p
		cp.sizes = maps.Clone(p.sizes)
		products[id] = cp
	}
	return products, maps.Clone(s.orders)
}

func (s *fakeStore) restore(products map[int64]product, orders map[string]domain.Order) {
	for id, p := range products {
		s.products[id] = &p
	}
	s.orders = orders
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	products, orders := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restore(products, orders)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	for i := range order.Items {
		order.Items[i].ID = int64(i + 1)
	}
	s.orders[order.ID] = *order
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (s *fakeStore) List(_ context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	order.Status = status
	s.orders[id] = order
	return &order, nil
}

func (s *fakeStore) Stock(_ context.Context, productID int64, sizeID *int64) (domain.StockLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return domain.StockLevel{}, domain.ErrProductNotFound
	}
	level := domain.StockLevel{ProductID: productID, SizeID: sizeID, ProductName: p.name, Price: p.price, Total: p.stock}
	if sizeID == nil {
		return level, nil
	}
	name, ok := s.sizeNames[*sizeID]
	if !ok {
		return domain.StockLevel{}, domain.ErrSizeNotFound
	}
	level.SizeName = name
	if stock, ok := p.sizes[*sizeID]; ok {
		level.Total = stock
		level.SizeLevel = true
	}
	return level, nil
}

func (s *fakeStore) Decrement(_ context.Context, productID int64, sizeID *int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if sizeID != nil {
		if stock, ok := p.sizes[*sizeID]; ok {
			if stock < quantity {
				return domain.ErrInsufficientStock
			}
			p.sizes[*sizeID] = stock - quantity
			return nil
		}
	}
	if p.stock < quantity {
		return domain.ErrInsufficientStock
	}
	p.stock -= quantity
	return nil
}

type fakeShipping struct {
	costs map[string]int64
}

func (f fakeShipping) Cost(_ context.Context, governorate string) (decimal.Decimal, error) {
	if c, ok := f.costs[governorate]; ok {
		return decimal.NewFromInt(c), nil
	}
	return decimal.NewFromInt(100), nil
}

type fakeCart struct {
	carts   map[string]domain.Cart
	cleared []string
}

func (c *fakeCart) Get(_ context.Context, sessionID string) (domain.Cart, error) {
	if cart, ok := c.carts[sessionID]; ok {
		return cart, nil
	}
	return domain.NewCart(), nil
}

func (c *fakeCart) Clear(_ context.Context, sessionID string) error {
	c.cleared = append(c.cleared, sessionID)
	delete(c.carts, sessionID)
	return nil
}

type fakeReleaser struct {
	released []string
}

func (r *fakeReleaser) ReleaseSession(_ context.Context, sessionID string) (int64, error) {
	r.released = append(r.released, sessionID)
	return 1, nil
}

type fakeNotifier struct {
	placed  []string
	changed []domain.OrderStatus
	err     error
}

func (n *fakeNotifier) OrderPlaced(_ context.Context, order domain.Order) error {
	n.placed = append(n.placed, order.ID)
	return n.err
}

func (n *fakeNotifier) OrderStatusChanged(_ context.Context, order domain.Order, previous domain.OrderStatus) error {
	n.changed = append(n.changed, previous, order.Status)
	return n.err
}

var errBoom = errors.New("boom")

func int64Ptr(v int64) *int64 { return &v }
