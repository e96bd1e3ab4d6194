package order

import (
	"fmt"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceTolerance absorbs rounding noise between client and server totals
var PriceTolerance = decimal.NewFromFloat(0.01)

var (
	ErrPriceMismatch    = shared.NewDomainError("PRICE_MISMATCH", "Invalid total price")
	ErrTransitionDenied = shared.NewDomainError("INVALID_STATE", "Order status transition is not allowed")
)

// PriceMismatchError is returned when the submitted total disagrees with the item sum
type PriceMismatchError struct {
	Calculated decimal.Decimal
	Submitted  decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("invalid total price: calculated %s, submitted %s", e.Calculated.String(), e.Submitted.String())
}

// Is makes errors.Is(err, ErrPriceMismatch) hold
func (e *PriceMismatchError) Is(target error) bool {
	return target == ErrPriceMismatch
}
