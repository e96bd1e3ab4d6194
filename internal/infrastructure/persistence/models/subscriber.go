package models

import (
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/subscriber"
	"github.com/google/uuid"
)

// SubscriberModel is the persistence model for newsletter subscribers
type SubscriberModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(320);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubscriberModel) TableName() string {
	return "subscribers"
}

// ToDomain converts the persistence model to a domain Subscriber
func (m *SubscriberModel) ToDomain() *subscriber.Subscriber {
	return &subscriber.Subscriber{
		ID:        m.ID,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

// SubscriberModelFromDomain creates a persistence model from a domain Subscriber
func SubscriberModelFromDomain(s *subscriber.Subscriber) *SubscriberModel {
	return &SubscriberModel{
		ID:        s.ID,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
	}
}
