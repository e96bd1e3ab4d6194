package order

import (
	"strconv"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateType is the aggregate name recorded on order events
const AggregateType = "Order"

// PreferredContact is the channel the buyer wants to be reached through
type PreferredContact string

const (
	ContactPhone    PreferredContact = "phone"
	ContactWhatsApp PreferredContact = "whatsapp"
	ContactTelegram PreferredContact = "telegram"
)

// IsValid checks if the channel is supported
func (c PreferredContact) IsValid() bool {
	switch c {
	case ContactPhone, ContactWhatsApp, ContactTelegram:
		return true
	}
	return false
}

// Item is a snapshot of a cart line taken at checkout
type Item struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

// Amount returns price * quantity
func (i Item) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Contact holds how the shop reaches the buyer
type Contact struct {
	Phone            string           `json:"phone"`
	Email            string           `json:"email,omitempty"`
	PreferredContact PreferredContact `json:"preferredContact"`
}

// Order is a submitted checkout. Everything except Status is immutable after creation.
type Order struct {
	ID         uuid.UUID
	Items      []Item
	Contact    Contact
	TotalPrice decimal.Decimal
	Status     Status
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time

	events []shared.DomainEvent
}

// NewOrder validates the draft and creates a pending order.
// The submitted total must match the item sum within PriceTolerance; it is never corrected.
func NewOrder(items []Item, contact Contact, totalPrice decimal.Decimal) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.NewValidationError("Invalid request data", shared.FieldError{Field: "items", Message: "at least one item is required"})
	}

	var details []shared.FieldError
	for i, item := range items {
		if !item.Price.IsPositive() {
			details = append(details, shared.FieldError{Field: itemField(i, "price"), Message: "must be greater than 0"})
		}
		if item.Quantity <= 0 {
			details = append(details, shared.FieldError{Field: itemField(i, "quantity"), Message: "must be greater than 0"})
		}
	}
	if !contact.PreferredContact.IsValid() {
		details = append(details, shared.FieldError{Field: "contact.preferredContact", Message: "must be one of: phone whatsapp telegram"})
	}
	if !totalPrice.IsPositive() {
		details = append(details, shared.FieldError{Field: "totalPrice", Message: "must be greater than 0"})
	}
	if len(details) > 0 {
		return nil, shared.NewValidationError("Invalid request data", details...)
	}

	calculated := CalculateTotal(items)
	if calculated.Sub(totalPrice).Abs().GreaterThan(PriceTolerance) {
		return nil, &PriceMismatchError{Calculated: calculated, Submitted: totalPrice}
	}

	now := time.Now()
	o := &Order{
		ID:         uuid.New(),
		Items:      append([]Item(nil), items...),
		Contact:    contact,
		TotalPrice: totalPrice,
		Status:     StatusPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.addEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// CalculateTotal sums price * quantity over items
func CalculateTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount())
	}
	return total
}

// ChangeStatus applies a status change permitted by policy
func (o *Order) ChangeStatus(to Status, policy StatusPolicy) error {
	if !policy.Allows(o.Status, to) {
		return ErrTransitionDenied
	}
	if o.Status == to {
		return nil
	}
	from := o.Status
	o.Status = to
	o.Version++
	o.UpdatedAt = time.Now()
	o.addEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// TotalQuantity returns the number of units across all items
func (o *Order) TotalQuantity() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// PullEvents returns and clears the events recorded since the last call
func (o *Order) PullEvents() []shared.DomainEvent {
	events := o.events
	o.events = nil
	return events
}

func (o *Order) addEvent(e shared.DomainEvent) {
	o.events = append(o.events, e)
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
