package cart

import (
	"context"
	"errors"
)

// ErrCartNotFound is returned when no cart is stored for a session
var ErrCartNotFound = errors.New("cart not found")

// Repository keeps cart snapshots keyed by session id
type Repository interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, sessionID string) error

	// Update applies fn to the stored cart, or to a new empty one, and
	// saves the result atomically with respect to other writers
	Update(ctx context.Context, sessionID string, fn func(*Cart)) (*Cart, error)
	// Take removes and returns the cart in one step. Only one of several
	// concurrent callers receives it; the rest get ErrCartNotFound.
	Take(ctx context.Context, sessionID string) (*Cart, error)
}
