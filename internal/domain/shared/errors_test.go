package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	t.Run("wrapped copy matches sentinel", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := fmt.Errorf("create order: %w", ErrPersistence.Wrap(cause))

		assert.True(t, errors.Is(err, ErrPersistence))
		assert.True(t, errors.Is(err, cause))
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("as extracts code", func(t *testing.T) {
		var de *DomainError
		assert.True(t, errors.As(fmt.Errorf("x: %w", ErrForbidden), &de))
		assert.Equal(t, "FORBIDDEN", de.Code)
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("Invalid request data",
		FieldError{Field: "contact.phone", Message: "invalid format"},
		FieldError{Field: "totalPrice", Message: "must be greater than 0"},
	)

	assert.Equal(t, "Invalid request data (contact.phone: invalid format; totalPrice: must be greater than 0)", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "Invalid request data", NewValidationError("Invalid request data").Error())
}
