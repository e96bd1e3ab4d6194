package dto

import "net/http"

// Error codes returned in the "code" field of error responses.
// Domain error codes pass through unchanged.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodePriceMismatch    = "PRICE_MISMATCH"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeInvalidStatus    = "INVALID_STATUS"
	ErrCodeInvalidState     = "INVALID_STATE"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeEmptyMessage     = "EMPTY_MESSAGE"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeTooLarge         = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodeNotification     = "NOTIFICATION_DELIVERY_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input errors -> 400 Bad Request
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodePriceMismatch: http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidStatus: http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeEmptyMessage:  http.StatusBadRequest,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
	ErrCodeTooLarge:         http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:      http.StatusTooManyRequests,

	// Infrastructure errors are never echoed to the caller
	ErrCodePersistence:  http.StatusInternalServerError,
	ErrCodeNotification: http.StatusInternalServerError,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether code describes a problem with the request
func IsClientError(code string) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}
