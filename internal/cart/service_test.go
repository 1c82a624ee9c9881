package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/session"
)

type fakeCatalog struct {
	products map[int64]domain.Product
	sizes    map[int64]string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[int64]domain.Product{
			1: {ID: 1, Name: "Shirt", Price: decimal.NewFromInt(250), Stock: 5, Available: true},
			2: {ID: 2, Name: "Retired", Price: decimal.NewFromInt(10), Available: false},
		},
		sizes: map[int64]string{1: "S", 2: "M"},
	}
}

func (c *fakeCatalog) Product(_ context.Context, id int64) (domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (c *fakeCatalog) Stock(ctx context.Context, productID int64, sizeID *int64) (domain.StockLevel, error) {
	p, err := c.Product(ctx, productID)
	if err != nil {
		return domain.StockLevel{}, err
	}
	level := domain.StockLevel{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Total: p.Stock, SizeID: sizeID}
	if sizeID != nil {
		name, ok := c.sizes[*sizeID]
		if !ok {
			return domain.StockLevel{}, domain.ErrSizeNotFound
		}
		level.SizeName = name
	}
	return level, nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("persists lines per session", func(t *testing.T) {
		svc := NewService(session.NewMemoryStore(), newFakeCatalog())

		if _, err := svc.Add(ctx, "s1", AddInput{ProductID: 1, SizeID: int64Ptr(2), Quantity: 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cart, err := svc.Add(ctx, "s1", AddInput{ProductID: 1, SizeID: int64Ptr(2), Quantity: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		line := cart.Entries["1_2"]
		if line.Quantity != 3 || line.SizeName != "M" || line.ProductName != "Shirt" {
			t.Errorf("unexpected line: %+v", line)
		}

		other, _ := svc.Get(ctx, "s2")
		if other.Len() != 0 {
			t.Errorf("expected empty cart for other session, got %d units", other.Len())
		}

		stored, _ := svc.Get(ctx, "s1")
		if !stored.Total().Equal(decimal.NewFromInt(750)) {
			t.Errorf("expected total 750, got %s", stored.Total())
		}
	})

	t.Run("override replaces quantity", func(t *testing.T) {
		svc := NewService(session.NewMemoryStore(), newFakeCatalog())
		_, _ = svc.Add(ctx, "s1", AddInput{ProductID: 1, Quantity: 4})

		cart, err := svc.Add(ctx, "s1", AddInput{ProductID: 1, Quantity: 1, Override: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cart.Len() != 1 {
			t.Errorf("expected 1 unit, got %d", cart.Len())
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		svc := NewService(session.NewMemoryStore(), newFakeCatalog())

		tests := []struct {
			name string
			in   AddInput
			want error
		}{
			{"unknown product", AddInput{ProductID: 9, Quantity: 1}, domain.ErrProductNotFound},
			{"unknown size", AddInput{ProductID: 1, SizeID: int64Ptr(9), Quantity: 1}, domain.ErrSizeNotFound},
			{"unavailable product", AddInput{ProductID: 2, Quantity: 1}, domain.ErrProductUnavailable},
			{"zero quantity", AddInput{ProductID: 1}, domain.ErrInvalidQuantity},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := svc.Add(ctx, "s1", tt.in); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc := NewService(session.NewMemoryStore(), newFakeCatalog())

	_, _ = svc.Add(ctx, "s1", AddInput{ProductID: 1, Quantity: 1})
	_, _ = svc.Add(ctx, "s1", AddInput{ProductID: 1, SizeID: int64Ptr(1), Quantity: 1})

	cart, err := svc.Remove(ctx, "s1", 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Entries) != 1 {
		t.Errorf("expected 1 line left, got %d", len(cart.Entries))
	}

	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart, _ = svc.Get(ctx, "s1")
	if cart.Len() != 0 {
		t.Errorf("expected empty cart, got %d units", cart.Len())
	}
}
