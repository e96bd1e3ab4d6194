package cart

import (
	"context"
	"errors"
	"fmt"

	orderapp "github.com/bignstrong/RailGuard/internal/application/order"
	"github.com/bignstrong/RailGuard/internal/domain/cart"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrEmptyCart is returned when checking out a cart without items
var ErrEmptyCart = shared.NewValidationError("Invalid request data",
	shared.FieldError{Field: "items", Message: "cart is empty"})

// OrderSubmitter places orders built from a cart
type OrderSubmitter interface {
	Submit(ctx context.Context, req *orderapp.CreateOrderRequest) (*orderapp.SubmitResult, error)
}

// Service manages session carts
type Service struct {
	repo   cart.Repository
	orders OrderSubmitter
	logger *zap.Logger
}

// NewService creates a new cart Service
func NewService(repo cart.Repository, orders OrderSubmitter, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		orders: orders,
		logger: logger,
	}
}

// Get returns the session cart, or an empty one when none is stored
func (s *Service) Get(ctx context.Context, sessionID string) (*CartResponse, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return ToCartResponse(c), nil
}

// AddItem adds one unit of req to the cart
func (s *Service) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) {
		c.AddItem(req.ToItem())
	})
}

// RemoveItem deletes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) {
		c.RemoveItem(itemID)
	})
}

// UpdateQuantity sets the quantity of a line; values below 1 leave the cart unchanged
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) {
		c.UpdateQuantity(itemID, qty)
	})
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, sessionID string) (*CartResponse, error) {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return ToCartResponse(cart.New(sessionID)), nil
}

// Checkout claims the cart and submits it as an order. The cart is removed
// before submission so concurrent checkouts of one session place a single
// order; a failed submission puts the lines back.
func (s *Service) Checkout(ctx context.Context, sessionID string, contact orderapp.ContactRequest) (*orderapp.SubmitResult, error) {
	c, err := s.repo.Take(ctx, sessionID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := c.Snapshot()
	req := &orderapp.CreateOrderRequest{
		Items:      make([]orderapp.OrderItemRequest, len(items)),
		Contact:    contact,
		TotalPrice: c.TotalPrice().InexactFloat64(),
	}
	for i, item := range items {
		req.Items[i] = orderapp.OrderItemRequest{
			ID:       item.ID,
			Title:    item.Title,
			Price:    item.Price.InexactFloat64(),
			Quantity: item.Quantity,
			Image:    item.Image,
		}
	}

	result, err := s.orders.Submit(ctx, req)
	if err != nil {
		s.restore(ctx, c)
		return nil, err
	}
	return result, nil
}

// restore merges claimed lines back into whatever the session holds now
func (s *Service) restore(ctx context.Context, claimed *cart.Cart) {
	_, err := s.repo.Update(context.WithoutCancel(ctx), claimed.SessionID, func(c *cart.Cart) {
		c.Merge(claimed.Items)
	})
	if err != nil {
		s.logger.Error("order rejected and cart could not be restored",
			zap.String("session_id", claimed.SessionID),
			zap.Int("items", len(claimed.Items)),
			zap.Error(err),
		)
	}
}

func (s *Service) load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	c, err := s.repo.Get(ctx, sessionID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return cart.New(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

func (s *Service) mutate(ctx context.Context, sessionID string, apply func(*cart.Cart)) (*CartResponse, error) {
	c, err := s.repo.Update(ctx, sessionID, apply)
	if err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return ToCartResponse(c), nil
}
