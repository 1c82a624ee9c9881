package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatusDisplay = map[OrderStatus]string{
	OrderStatusPending:    "Pending",
	OrderStatusProcessing: "Processing",
	OrderStatusShipped:    "Shipped",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCancelled:  "Cancelled",
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusDisplay[s]
	return ok
}

func (s OrderStatus) Display() string {
	if d, ok := orderStatusDisplay[s]; ok {
		return d
	}
	return string(s)
}

// OrderItem snapshots what was bought. ProductID is nil for custom lines that
// do not reference the catalog.
type OrderItem struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	SizeID      *int64          `json:"size_id,omitempty"`
	SizeName    string          `json:"size_name,omitempty"`
}

func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Customer struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone"`
	Governorate string `json:"governorate"`
}

func (c Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Order struct {
	ID string `json:"id"`
	Customer
	SessionID    string          `json:"-"`
	Items        []OrderItem     `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
	Status       OrderStatus     `json:"status"`
	Paid         bool            `json:"paid"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ComputeTotals sets Subtotal and Total from the items and shipping cost.
func (o *Order) ComputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Cost())
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.ShippingCost)
}
