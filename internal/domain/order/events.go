package order

import (
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// OrderCreatedEvent carries a copy of the order as it was persisted
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID       `json:"order_id"`
	Items      []Item          `json:"items"`
	Contact    Contact         `json:"contact"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewOrderCreatedEvent creates an OrderCreated event for o
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateType, o.ID),
		OrderID:         o.ID,
		Items:           append([]Item(nil), o.Items...),
		Contact:         o.Contact,
		TotalPrice:      o.TotalPrice,
		CreatedAt:       o.CreatedAt,
	}
}

// OrderStatusChangedEvent is raised when an admin moves an order to another status
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChanged event for o
func NewOrderStatusChangedEvent(o *Order, from Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateType, o.ID),
		OrderID:         o.ID,
		OldStatus:       from,
		NewStatus:       o.Status,
	}
}
