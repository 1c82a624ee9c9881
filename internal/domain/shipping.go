package domain

import "github.com/shopspring/decimal"

type Governorate struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Active       bool            `json:"is_active"`
}
