package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/session"
)

const storeKey = "cart"

type Catalog interface {
	Product(ctx context.Context, id int64) (domain.Product, error)
	Stock(ctx context.Context, productID int64, sizeID *int64) (domain.StockLevel, error)
}

// Service keeps one cart per session in a session.Store. It does not check
// stock; that is the reservation arbiter's job.
type Service struct {
	store   session.Store
	catalog Catalog
}

func NewService(store session.Store, catalog Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

type AddInput struct {
	ProductID int64
	SizeID    *int64
	Quantity  int
	Override  bool
}

func (s *Service) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := s.store.Get(ctx, sessionID, storeKey)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.NewCart()
	if raw == nil {
		return cart, nil
	}
	if err := json.Unmarshal(raw, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Entries == nil {
		cart.Entries = make(map[string]domain.CartEntry)
	}
	return cart, nil
}

func (s *Service) Add(ctx context.Context, sessionID string, in AddInput) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, domain.ErrSessionRequired
	}
	if in.Quantity <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	product, err := s.catalog.Product(ctx, in.ProductID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !product.Available {
		return domain.Cart{}, domain.ErrProductUnavailable
	}

	entry := domain.CartEntry{
		ProductID:   product.ID,
		ProductName: product.Name,
		SizeID:      in.SizeID,
		Quantity:    in.Quantity,
		Price:       product.Price,
	}
	if in.SizeID != nil {
		level, err := s.catalog.Stock(ctx, in.ProductID, in.SizeID)
		if err != nil {
			return domain.Cart{}, err
		}
		entry.SizeName = level.SizeName
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Add(entry, in.Override)

	return cart, s.save(ctx, sessionID, cart)
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID int64, sizeID *int64) (domain.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !cart.Remove(productID, sizeID) {
		return cart, nil
	}
	return cart, s.save(ctx, sessionID, cart)
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID, storeKey)
}

func (s *Service) save(ctx context.Context, sessionID string, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, sessionID, storeKey, raw)
}
