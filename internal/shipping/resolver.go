package shipping

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Lookup interface {
	FindActive(ctx context.Context, name string) (*domain.Governorate, error)
	ListActive(ctx context.Context) ([]domain.Governorate, error)
}

// Resolver prices shipping for a free-text governorate. Blank or unknown
// input gets the default fee.
type Resolver struct {
	lookup     Lookup
	defaultFee decimal.Decimal
}

func NewResolver(lookup Lookup, defaultFee decimal.Decimal) *Resolver {
	return &Resolver{lookup: lookup, defaultFee: defaultFee}
}

type Quote struct {
	Governorate  string          `json:"governorate"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	IsDefault    bool            `json:"is_default"`
}

func (r *Resolver) Quote(ctx context.Context, governorate string) (Quote, error) {
	name := strings.TrimSpace(governorate)
	if name == "" {
		return Quote{ShippingCost: r.defaultFee, IsDefault: true}, nil
	}

	g, err := r.lookup.FindActive(ctx, name)
	if err != nil {
		return Quote{}, err
	}
	if g == nil {
		return Quote{Governorate: name, ShippingCost: r.defaultFee, IsDefault: true}, nil
	}
	return Quote{Governorate: g.Name, ShippingCost: g.ShippingCost}, nil
}

func (r *Resolver) Cost(ctx context.Context, governorate string) (decimal.Decimal, error) {
	q, err := r.Quote(ctx, governorate)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return q.ShippingCost, nil
}

func (r *Resolver) Governorates(ctx context.Context) ([]domain.Governorate, error) {
	return r.lookup.ListActive(ctx)
}
