package order

import (
	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one cart line in a checkout payload
type OrderItemRequest struct {
	ID       string  `json:"id" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	Price    float64 `json:"price" validate:"gt=0,money"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Image    string  `json:"image" validate:"required,image_ref"`
}

// ContactRequest holds how the buyer wants to be reached
type ContactRequest struct {
	Phone            string `json:"phone" validate:"required,ru_phone"`
	Email            string `json:"email" validate:"omitempty,email"`
	PreferredContact string `json:"preferredContact" validate:"required,oneof=phone whatsapp telegram"`
}

// CreateOrderRequest is the checkout payload posted by the storefront
type CreateOrderRequest struct {
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Contact    ContactRequest     `json:"contact"`
	TotalPrice float64            `json:"totalPrice" validate:"gt=0,money"`
}

// ToItems converts request lines into domain items
func (r CreateOrderRequest) ToItems() []order.Item {
	items := make([]order.Item, len(r.Items))
	for i, it := range r.Items {
		items[i] = order.Item{
			ID:       it.ID,
			Title:    it.Title,
			Price:    decimal.NewFromFloat(it.Price),
			Quantity: it.Quantity,
			Image:    it.Image,
		}
	}
	return items
}

// ToContact converts the request contact into the domain value
func (r CreateOrderRequest) ToContact() order.Contact {
	return order.Contact{
		Phone:            r.Contact.Phone,
		Email:            r.Contact.Email,
		PreferredContact: order.PreferredContact(r.Contact.PreferredContact),
	}
}

// SubmitResult is returned after an order is persisted
type SubmitResult struct {
	OrderID string `json:"orderId"`
}
