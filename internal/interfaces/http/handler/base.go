// Package handler contains the gin handlers of the storefront API and the
// chat webhook.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/logger"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/dto"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, message string, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(message, middleware.GetRequestID(c), details))
}

// HandleError converts service errors to HTTP responses.
// Client errors keep their own message; anything else is logged and
// answered with internalMsg so storage details never reach the caller.
func (h *BaseHandler) HandleError(c *gin.Context, err error, internalMsg string) {
	if err == nil {
		return
	}

	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		h.ValidationError(c, validationErr.Message, dto.FromFieldErrors(validationErr.Details))
		return
	}

	if errors.Is(err, order.ErrPriceMismatch) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodePriceMismatch, order.ErrPriceMismatch.Message)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && dto.IsClientError(domainErr.Code) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, internalMsg)
}

// BindError answers a request whose body could not be bound
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, dto.MsgTooLarge)
		return
	}

	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, dto.MsgInvalidRequest, details)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		h.ValidationError(c, dto.MsgInvalidRequest, []dto.ValidationDetail{{
			Field:   typeErr.Field,
			Message: "must be a " + typeErr.Type.String(),
		}})
		return
	}

	if errors.Is(err, io.EOF) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is empty")
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, dto.MsgInvalidRequest)
}
