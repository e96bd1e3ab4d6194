package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItems is the jsonb column holding item snapshots
type OrderItems []order.Item

// Value implements driver.Valuer
func (i OrderItems) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (i *OrderItems) Scan(value any) error {
	if value == nil {
		*i = OrderItems{}
		return nil
	}
	b, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("order items: %w", err)
	}
	return json.Unmarshal(b, i)
}

// OrderContact is the jsonb column holding buyer contact details
type OrderContact order.Contact

// Value implements driver.Valuer
func (c OrderContact) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *OrderContact) Scan(value any) error {
	if value == nil {
		*c = OrderContact{}
		return nil
	}
	b, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("order contact: %w", err)
	}
	return json.Unmarshal(b, c)
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("unsupported type %T", value)
}

// OrderModel is the persistence model for the Order aggregate.
// Version is informational and bumped on every status write.
type OrderModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Items      OrderItems      `gorm:"type:jsonb;not null"`
	Contact    OrderContact    `gorm:"type:jsonb;not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	Version    int             `gorm:"not null;default:1"`
	CreatedAt  time.Time       `gorm:"not null;index"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	items := make([]order.Item, len(m.Items))
	copy(items, m.Items)
	return &order.Order{
		ID:         m.ID,
		Items:      items,
		Contact:    order.Contact(m.Contact),
		TotalPrice: m.TotalPrice,
		Status:     order.Status(m.Status),
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.ID = o.ID
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.Version = o.Version
	m.Items = append(OrderItems(nil), o.Items...)
	m.Contact = OrderContact(o.Contact)
	m.TotalPrice = o.TotalPrice
	m.Status = string(o.Status)
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
