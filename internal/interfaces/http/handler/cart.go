package handler

import (
	"net/http"
	"time"

	cartapp "github.com/bignstrong/RailGuard/internal/application/cart"
	orderapp "github.com/bignstrong/RailGuard/internal/application/order"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartSessionHeader carries the cart session id
const CartSessionHeader = "X-Cart-Session"

// DefaultCartCookie is the cookie used when no name is configured
const DefaultCartCookie = "cart_session"

// CartCookie controls the session cookie issued to new visitors
type CartCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// CheckoutRequest carries the buyer contact for a cart checkout
type CheckoutRequest struct {
	Contact orderapp.ContactRequest `json:"contact"`
}

// CartHandler exposes the session cart
type CartHandler struct {
	BaseHandler
	carts  *cartapp.Service
	cookie CartCookie
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *cartapp.Service, cookie CartCookie) *CartHandler {
	if cookie.Name == "" {
		cookie.Name = DefaultCartCookie
	}
	return &CartHandler{carts: carts, cookie: cookie}
}

// Get godoc
// @Summary      Get the session cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} cartapp.CartResponse
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	resp, err := h.carts.Get(c.Request.Context(), h.session(c))
	h.respond(c, resp, err)
}

// AddItem godoc
// @Summary      Add one unit of a product
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Product"
// @Success      200 {object} cartapp.CartResponse
// @Failure      400 {object} dto.Response
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.carts.AddItem(c.Request.Context(), h.session(c), req)
	h.respond(c, resp, err)
}

// UpdateQuantity godoc
// @Summary      Set the quantity of a line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        request body cartapp.UpdateQuantityRequest true "Quantity"
// @Success      200 {object} cartapp.CartResponse
// @Router       /cart/items/{id} [patch]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req cartapp.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.carts.UpdateQuantity(c.Request.Context(), h.session(c), c.Param("id"), req.Quantity)
	h.respond(c, resp, err)
}

// RemoveItem godoc
// @Summary      Remove a line
// @Tags         cart
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} cartapp.CartResponse
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	resp, err := h.carts.RemoveItem(c.Request.Context(), h.session(c), c.Param("id"))
	h.respond(c, resp, err)
}

// Clear godoc
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} cartapp.CartResponse
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	resp, err := h.carts.Clear(c.Request.Context(), h.session(c))
	h.respond(c, resp, err)
}

// Checkout godoc
// @Summary      Submit the cart as an order
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body CheckoutRequest true "Contact"
// @Success      200 {object} dto.OrderCreatedResponse
// @Failure      400 {object} dto.Response
// @Failure      429 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.carts.Checkout(c.Request.Context(), h.session(c), req.Contact)
	if err != nil {
		h.HandleError(c, err, dto.MsgOrderFailed)
		return
	}

	c.JSON(http.StatusOK, dto.OrderCreatedResponse{
		Message: dto.MsgOrderCreated,
		OrderID: result.OrderID,
	})
}

func (h *CartHandler) respond(c *gin.Context, resp *cartapp.CartResponse, err error) {
	if err != nil {
		h.HandleError(c, err, dto.MsgInternal)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// session returns the caller's cart session, issuing a new one when the
// header and cookie are both missing or malformed
func (h *CartHandler) session(c *gin.Context) string {
	id := c.GetHeader(CartSessionHeader)
	if id == "" {
		id, _ = c.Cookie(h.cookie.Name)
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookie.Name, id, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)
	}
	c.Header(CartSessionHeader, id)
	return id
}
