package subscriber

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/google/uuid"
)

// Subscriber is an email address signed up for the newsletter
type Subscriber struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

// NewSubscriber normalises and validates email
func NewSubscriber(email string) (*Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewValidationError("Email обязателен", shared.FieldError{Field: "email", Message: "is required"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, shared.NewValidationError("Некорректный email", shared.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	return &Subscriber{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now(),
	}, nil
}

// Repository stores subscribers
type Repository interface {
	// Upsert inserts the subscriber unless the email already exists
	Upsert(ctx context.Context, s *Subscriber) error
}
