package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one line of a visitor's cart
type Item struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Price    decimal.Decimal  `json:"price"`
	OldPrice *decimal.Decimal `json:"oldPrice,omitempty"`
	Quantity int              `json:"quantity"`
	Image    string           `json:"image"`
}

// referencePrice is the pre-discount price, falling back to Price
func (i Item) referencePrice() decimal.Decimal {
	if i.OldPrice != nil {
		return *i.OldPrice
	}
	return i.Price
}

// Cart holds the items a visitor intends to buy.
// Totals are derived on every read and never cached.
type Cart struct {
	SessionID string    `json:"sessionId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates an empty cart for a session
func New(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Items:     make([]Item, 0),
		UpdatedAt: time.Now(),
	}
}

// AddItem increments the quantity of an existing line and overwrites its
// other fields with item's values, or appends item with quantity 1.
func (c *Cart) AddItem(item Item) {
	defer c.touch()
	if i := c.indexOf(item.ID); i >= 0 {
		qty := c.Items[i].Quantity + 1
		c.Items[i] = item
		c.Items[i].Quantity = qty
		return
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
}

// RemoveItem deletes the line with id; no-op if absent
func (c *Cart) RemoveItem(id string) {
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
}

// UpdateQuantity sets the quantity of a line. Values below 1 are ignored;
// RemoveItem is the only way to delete a line.
func (c *Cart) UpdateQuantity(id string, qty int) {
	if qty < 1 {
		return
	}
	if i := c.indexOf(id); i >= 0 {
		c.Items[i].Quantity = qty
		c.touch()
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = make([]Item, 0)
	c.touch()
}

// Merge appends the lines of items whose ids are not already in the cart,
// keeping their quantities
func (c *Cart) Merge(items []Item) {
	added := false
	for _, item := range items {
		if c.indexOf(item.ID) >= 0 {
			continue
		}
		c.Items = append(c.Items, item)
		added = true
	}
	if added {
		c.touch()
	}
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalItems returns the sum of quantities
func (c *Cart) TotalItems() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// TotalPrice returns the sum of price * quantity
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TotalOldPrice returns the sum of (oldPrice ?? price) * quantity
func (c *Cart) TotalOldPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.referencePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Snapshot returns a deep copy of the items
func (c *Cart) Snapshot() []Item {
	out := make([]Item, len(c.Items))
	for i, item := range c.Items {
		out[i] = item
		if item.OldPrice != nil {
			old := *item.OldPrice
			out[i].OldPrice = &old
		}
	}
	return out
}

func (c *Cart) indexOf(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
