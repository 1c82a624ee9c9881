package domain

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// CartEntry is one (product, size) line of a session cart. Price is the unit
// price captured when the line was first added.
type CartEntry struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"name"`
	SizeID      *int64          `json:"size_id,omitempty"`
	SizeName    string          `json:"size_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func (e CartEntry) Key() string {
	return CartKey(e.ProductID, e.SizeID)
}

func (e CartEntry) LineTotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// CartKey builds the session cart key: "<product>" or "<product>_<size>".
func CartKey(productID int64, sizeID *int64) string {
	key := strconv.FormatInt(productID, 10)
	if sizeID != nil {
		key += "_" + strconv.FormatInt(*sizeID, 10)
	}
	return key
}

type Cart struct {
	Entries map[string]CartEntry `json:"entries"`
}

func NewCart() Cart {
	return Cart{Entries: make(map[string]CartEntry)}
}

// Add merges e into the cart. With override the quantity is replaced,
// otherwise it is incremented. The price snapshot of an existing line is kept.
func (c *Cart) Add(e CartEntry, override bool) {
	if c.Entries == nil {
		c.Entries = make(map[string]CartEntry)
	}

	key := e.Key()
	existing, ok := c.Entries[key]
	if !ok {
		c.Entries[key] = e
		return
	}

	if override {
		existing.Quantity = e.Quantity
	} else {
		existing.Quantity += e.Quantity
	}
	c.Entries[key] = existing
}

// Remove deletes the line and reports whether it was present.
func (c *Cart) Remove(productID int64, sizeID *int64) bool {
	key := CartKey(productID, sizeID)
	if _, ok := c.Entries[key]; !ok {
		return false
	}
	delete(c.Entries, key)
	return true
}

// Len is the number of units in the cart, not the number of lines.
func (c Cart) Len() int {
	n := 0
	for _, e := range c.Entries {
		n += e.Quantity
	}
	return n
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.Entries {
		total = total.Add(e.LineTotal())
	}
	return total
}

// Lines returns the entries ordered by key.
func (c Cart) Lines() []CartEntry {
	keys := make([]string, 0, len(c.Entries))
	for k := range c.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]CartEntry, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, c.Entries[k])
	}
	return lines
}
