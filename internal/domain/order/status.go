package order

import (
	"fmt"
	"strings"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
)

// Status represents the lifecycle status of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Label returns the human readable status shown to shop staff
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Новый"
	case StatusProcessing:
		return "В обработке"
	case StatusCompleted:
		return "Выполнен"
	case StatusCancelled:
		return "Отменён"
	}
	return string(s)
}

// CanTransitionTo checks the strict lifecycle table
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// ParseStatus converts user input into a Status
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("unknown order status %q", value))
	}
	return s, nil
}

// StatusPolicy decides which status changes an admin may apply
type StatusPolicy string

const (
	// StatusPolicyFree allows any status to be overwritten by any other (last write wins)
	StatusPolicyFree StatusPolicy = "free"
	// StatusPolicyStrict only allows transitions from the lifecycle table
	StatusPolicyStrict StatusPolicy = "strict"
)

// ParseStatusPolicy converts a config value into a StatusPolicy, defaulting to free
func ParseStatusPolicy(value string) (StatusPolicy, error) {
	switch StatusPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", StatusPolicyFree:
		return StatusPolicyFree, nil
	case StatusPolicyStrict:
		return StatusPolicyStrict, nil
	}
	return "", fmt.Errorf("unknown status policy %q", value)
}

// Allows reports whether from may move to to.
// Re-applying the current status is always allowed so repeated button presses stay idempotent.
func (p StatusPolicy) Allows(from, to Status) bool {
	if !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	if p == StatusPolicyStrict {
		return from.CanTransitionTo(to)
	}
	return true
}
