package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists orders
type Repository interface {
	// Create inserts a new order
	Create(ctx context.Context, o *Order) error
	// FindByID returns shared.ErrNotFound when no order has the id
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// ListRecent returns up to limit orders, newest first
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	// UpdateStatus overwrites the status and returns the stored order.
	// Concurrent updates of the same order are last-write-wins.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error)
	// AggregateStats computes order book statistics
	AggregateStats(ctx context.Context) (*Stats, error)
}
