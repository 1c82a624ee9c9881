package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
}

type Size struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StockLevel is the persistent stock a cart line is measured against. When a
// size is requested and the product carries a per-size row, Total comes from
// that row; otherwise it falls back to the product-level count.
type StockLevel struct {
	ProductID   int64
	SizeID      *int64
	ProductName string
	SizeName    string
	Price       decimal.Decimal
	Total       int
	SizeLevel   bool
}
