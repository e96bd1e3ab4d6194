package handler

import (
	"context"
	"net/http"

	orderapp "github.com/bignstrong/RailGuard/internal/application/order"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// OrderSubmitter accepts validated storefront orders
type OrderSubmitter interface {
	Submit(ctx context.Context, req *orderapp.CreateOrderRequest) (*orderapp.SubmitResult, error)
}

// OrderHandler handles order submission
type OrderHandler struct {
	BaseHandler
	orders OrderSubmitter
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderSubmitter) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create godoc
// @Summary      Submit an order
// @Description  Validates the cart snapshot and contact, stores the order and notifies the shop.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CreateOrderRequest true "Order"
// @Success      200 {object} dto.OrderCreatedResponse
// @Failure      400 {object} dto.Response
// @Failure      429 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.orders.Submit(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err, dto.MsgOrderFailed)
		return
	}

	c.JSON(http.StatusOK, dto.OrderCreatedResponse{
		Message: dto.MsgOrderCreated,
		OrderID: result.OrderID,
	})
}
