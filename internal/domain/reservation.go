package domain

import "time"

// Reservation is a time-boxed claim on stock for one (session, product, size)
// line. Rows are never deleted; they are deactivated on release, expiry sweep
// or order placement.
type Reservation struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    *int64    `json:"user_id,omitempty"`
	ProductID int64     `json:"product_id"`
	SizeID    *int64    `json:"size_id,omitempty"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"is_active"`

	// Filled only by listings that join the catalog.
	ProductName string `json:"product_name,omitempty"`
	SizeName    string `json:"size_name,omitempty"`
}

// Live reports whether the hold still counts against available stock.
func (r Reservation) Live(now time.Time) bool {
	return r.Active && r.ExpiresAt.After(now)
}

func (r Reservation) Covers(productID int64, sizeID *int64) bool {
	if r.ProductID != productID {
		return false
	}
	if r.SizeID == nil || sizeID == nil {
		return r.SizeID == nil && sizeID == nil
	}
	return *r.SizeID == *sizeID
}
