package dto

import "github.com/bignstrong/RailGuard/internal/domain/shared"

// Response messages shared with the storefront
const (
	MsgOrderCreated     = "Order created successfully"
	MsgInvalidRequest   = "Invalid request data"
	MsgOrderFailed      = "An error occurred while processing your order. Please try again later."
	MsgTooManyRequests  = "Too many requests, please try again later."
	MsgMethodNotAllowed = "Method not allowed"
	MsgUnauthorized     = "Unauthorized"
	MsgNoMessageText    = "No message text"
	MsgOK               = "OK"
	MsgInternal         = "Internal server error"
	MsgTooLarge         = "Request body exceeds maximum allowed size"
	MsgNotFound         = "Not found"
	MsgSubscribed       = "Вы успешно подписались!"
	MsgSubscribeFailed  = "Произошла ошибка при подписке."
)

// ValidationDetail describes one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Response is the body of every non-resource response
type Response struct {
	Message   string             `json:"message"`
	Code      string             `json:"code,omitempty"`
	Errors    []ValidationDetail `json:"errors,omitempty"`
	RequestID string             `json:"requestId,omitempty"`
}

// OrderCreatedResponse is returned after a successful checkout
type OrderCreatedResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// NewMessageResponse creates a response carrying only a message
func NewMessageResponse(message string) Response {
	return Response{Message: message}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Message:   message,
		Code:      code,
		RequestID: requestID,
	}
}

// NewValidationErrorResponse creates a validation error response with field details
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Message:   message,
		Code:      ErrCodeValidation,
		Errors:    details,
		RequestID: requestID,
	}
}

// FromFieldErrors converts domain field errors into response details
func FromFieldErrors(fields []shared.FieldError) []ValidationDetail {
	details := make([]ValidationDetail, len(fields))
	for i, f := range fields {
		details[i] = ValidationDetail{Field: f.Field, Message: f.Message}
	}
	return details
}
