package cart

import (
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds one unit of a product to the cart
type AddItemRequest struct {
	ID       string   `json:"id" binding:"required"`
	Title    string   `json:"title" binding:"required"`
	Price    float64  `json:"price" binding:"gt=0"`
	OldPrice *float64 `json:"oldPrice" binding:"omitempty,gt=0"`
	Image    string   `json:"image" binding:"required"`
}

// ToItem converts the request into a cart line
func (r AddItemRequest) ToItem() cart.Item {
	item := cart.Item{
		ID:    r.ID,
		Title: r.Title,
		Price: decimal.NewFromFloat(r.Price),
		Image: r.Image,
	}
	if r.OldPrice != nil {
		old := decimal.NewFromFloat(*r.OldPrice)
		item.OldPrice = &old
	}
	return item
}

// UpdateQuantityRequest sets the quantity of a cart line
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is a cart with its derived totals
type CartResponse struct {
	SessionID     string          `json:"sessionId"`
	Items         []cart.Item     `json:"items"`
	TotalItems    int             `json:"totalItems"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	TotalOldPrice decimal.Decimal `json:"totalOldPrice"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ToCartResponse computes totals for c
func ToCartResponse(c *cart.Cart) *CartResponse {
	return &CartResponse{
		SessionID:     c.SessionID,
		Items:         c.Snapshot(),
		TotalItems:    c.TotalItems(),
		TotalPrice:    c.TotalPrice(),
		TotalOldPrice: c.TotalOldPrice(),
		UpdatedAt:     c.UpdatedAt,
	}
}
