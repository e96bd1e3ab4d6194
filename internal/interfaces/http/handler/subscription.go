package handler

import (
	"context"
	"errors"
	"net/http"

	subscriberapp "github.com/bignstrong/RailGuard/internal/application/subscriber"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/logger"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Subscriber signs emails up for the newsletter
type Subscriber interface {
	Subscribe(ctx context.Context, req subscriberapp.SubscribeRequest) error
}

// SubscriptionHandler handles newsletter sign-ups
type SubscriptionHandler struct {
	BaseHandler
	subscribers Subscriber
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscribers Subscriber) *SubscriptionHandler {
	return &SubscriptionHandler{subscribers: subscribers}
}

// Subscribe godoc
// @Summary      Subscribe to the newsletter
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request body subscriberapp.SubscribeRequest true "Email"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /subscriptions [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscriberapp.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	err := h.subscribers.Subscribe(c.Request.Context(), req)
	if err == nil {
		c.JSON(http.StatusOK, dto.NewMessageResponse(dto.MsgSubscribed))
		return
	}

	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, dto.NewMessageResponse(validationErr.Message))
		return
	}

	logger.GetGinLogger(c).Error("subscription failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewMessageResponse(dto.MsgSubscribeFailed))
}
