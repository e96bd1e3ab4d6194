package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/bignstrong/RailGuard/internal/application/admin"
	"github.com/bignstrong/RailGuard/internal/domain/chat"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/logger"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SecretTokenHeader carries the secret registered with setWebhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler processes chat updates
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u chat.Update) error
}

// WebhookHandler receives chat platform updates for the admin bot
type WebhookHandler struct {
	BaseHandler
	updates UpdateHandler
	secret  string
}

// NewWebhookHandler creates a new WebhookHandler.
// An empty secret disables the secret token check.
func NewWebhookHandler(updates UpdateHandler, secret string) *WebhookHandler {
	return &WebhookHandler{updates: updates, secret: secret}
}

// Handle godoc
// @Summary      Chat webhook
// @Tags         telegram
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Router       /telegram/webhook [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(SecretTokenHeader)), []byte(h.secret)) != 1 {
		c.JSON(http.StatusForbidden, dto.NewMessageResponse(dto.MsgUnauthorized))
		return
	}

	var update chat.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewMessageResponse(dto.MsgNoMessageText))
		return
	}

	err := h.updates.HandleUpdate(c.Request.Context(), update)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.NewMessageResponse(dto.MsgOK))
	case errors.Is(err, shared.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.NewMessageResponse(dto.MsgUnauthorized))
	case errors.Is(err, admin.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, dto.NewMessageResponse(dto.MsgNoMessageText))
	default:
		logger.GetGinLogger(c).Error("chat update failed",
			zap.Int64("update_id", update.UpdateID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.NewMessageResponse(dto.MsgInternal))
	}
}
