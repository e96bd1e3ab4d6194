// Package admin executes shop staff commands received from the chat platform.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bignstrong/RailGuard/internal/application/notification"
	"github.com/bignstrong/RailGuard/internal/domain/chat"
	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Replies sent to the admin chat
const (
	HelpText           = "Доступные команды:\n/orders - Список последних заказов\n/stats - Статистика по заказам\n/help - Список команд"
	NoOrdersText       = "Заказов пока нет"
	UnknownCommandText = "Неизвестная команда. Отправьте /help для списка команд."
	StatusErrorText    = "Ошибка при обновлении статуса заказа"
)

// Update kinds reported to the UpdateRecorder
const (
	UpdateCommand   = "command"
	UpdateCallback  = "callback"
	UpdateDuplicate = "duplicate"
	UpdateForbidden = "forbidden"
)

// ErrEmptyMessage is returned for a message update without text
var ErrEmptyMessage = shared.NewDomainError("EMPTY_MESSAGE", "No message text")

// OrderOperations is the subset of the order service used by admin commands
type OrderOperations interface {
	ListRecent(ctx context.Context, limit int) ([]*order.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error)
	Stats(ctx context.Context) (*order.Stats, error)
}

// UpdateRecorder counts inbound updates by kind
type UpdateRecorder interface {
	RecordWebhookUpdate(kind string)
}

// Handler authorizes and dispatches chat updates from shop staff
type Handler struct {
	orders      OrderOperations
	messenger   chat.Messenger
	admins      chat.AllowList
	dedupe      shared.IdempotencyStore
	dedupeTTL   time.Duration
	location    *time.Location
	recentLimit int
	topProducts int
	recorder    UpdateRecorder
	logger      *zap.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithIdempotencyStore drops updates whose update_id was already handled within ttl
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) Option {
	return func(h *Handler) {
		h.dedupe = store
		h.dedupeTTL = ttl
	}
}

// WithLocation sets the time zone order dates are rendered in
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithRecentLimit sets how many orders /orders lists
func WithRecentLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.recentLimit = n
		}
	}
}

// WithTopProducts sets the /stats leaderboard length
func WithTopProducts(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.topProducts = n
		}
	}
}

// WithUpdateRecorder sets where inbound updates are counted
func WithUpdateRecorder(r UpdateRecorder) Option {
	return func(h *Handler) {
		h.recorder = r
	}
}

// NewHandler creates a Handler that accepts updates from admins only
func NewHandler(orders OrderOperations, messenger chat.Messenger, admins chat.AllowList, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		orders:      orders,
		messenger:   messenger,
		admins:      admins,
		dedupeTTL:   24 * time.Hour,
		location:    time.UTC,
		recentLimit: 5,
		topProducts: 5,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleUpdate processes one webhook delivery.
// It returns shared.ErrForbidden for unknown senders and ErrEmptyMessage for
// a message without text; neither triggers any side effect.
func (h *Handler) HandleUpdate(ctx context.Context, u chat.Update) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "admin", "handle_update",
		attribute.Int64("chat.update_id", u.UpdateID),
	)
	defer span.End()

	sender, ok := u.SenderID()
	if !ok || !h.admins.Contains(sender) {
		h.record(UpdateForbidden)
		h.logger.Warn("unauthorized chat update", zap.Int64("sender_id", sender), zap.Int64("update_id", u.UpdateID))
		return shared.ErrForbidden
	}

	if u.CallbackQuery == nil && (u.Message == nil || strings.TrimSpace(u.Message.Text) == "") {
		return ErrEmptyMessage
	}

	if h.isDuplicate(ctx, u.UpdateID) {
		h.record(UpdateDuplicate)
		h.logger.Info("skipping redelivered chat update", zap.Int64("update_id", u.UpdateID))
		return nil
	}

	var err error
	if u.CallbackQuery != nil {
		h.record(UpdateCallback)
		err = h.handleCallback(ctx, u.CallbackQuery)
	} else {
		h.record(UpdateCommand)
		err = h.handleCommand(ctx, u.Message)
	}
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// isDuplicate marks the update as seen; store failures let the update through
func (h *Handler) isDuplicate(ctx context.Context, updateID int64) bool {
	if h.dedupe == nil || updateID == 0 {
		return false
	}
	fresh, err := h.dedupe.MarkProcessed(ctx, strconv.FormatInt(updateID, 10), h.dedupeTTL)
	if err != nil {
		h.logger.Warn("update de-duplication unavailable", zap.Int64("update_id", updateID), zap.Error(err))
		return false
	}
	return !fresh
}

func (h *Handler) handleCommand(ctx context.Context, msg *chat.Message) error {
	chatID := msg.Chat.ID
	switch normalizeCommand(msg.Text) {
	case "/start", "/help":
		h.reply(ctx, chatID, HelpText, nil)
		return nil
	case "/orders":
		return h.sendRecentOrders(ctx, chatID)
	case "/stats":
		return h.sendStats(ctx, chatID)
	}
	h.reply(ctx, chatID, UnknownCommandText, nil)
	return nil
}

func (h *Handler) sendRecentOrders(ctx context.Context, chatID int64) error {
	orders, err := h.orders.ListRecent(ctx, h.recentLimit)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		h.reply(ctx, chatID, NoOrdersText, nil)
		return nil
	}
	for _, o := range orders {
		h.reply(ctx, chatID, notification.OrderCard(o, h.location), notification.StatusKeyboard(o.ID))
	}
	return nil
}

func (h *Handler) sendStats(ctx context.Context, chatID int64) error {
	stats, err := h.orders.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}
	h.reply(ctx, chatID, notification.StatsReport(stats, h.topProducts), nil)
	return nil
}

// handleCallback applies a button press of the form action:orderId:value
func (h *Handler) handleCallback(ctx context.Context, cq *chat.CallbackQuery) error {
	defer h.answer(ctx, cq.ID)

	action, orderID, value, ok := parseCallbackData(cq.Data)
	if !ok || action != "status" {
		h.logger.Debug("ignoring callback", zap.String("data", cq.Data))
		return nil
	}
	if cq.Message == nil {
		h.logger.Warn("status callback without a message to edit", zap.String("order_id", orderID))
		return nil
	}
	chatID, messageID := cq.Message.Chat.ID, cq.Message.MessageID

	updated, err := h.orders.UpdateStatus(ctx, orderID, value)
	if err != nil {
		h.logger.Error("failed to update order status",
			zap.String("order_id", orderID),
			zap.String("status", value),
			zap.Error(err),
		)
		h.reply(ctx, chatID, StatusErrorText, nil)
		return nil
	}

	text := notification.OrderCard(updated, h.location)
	if err := h.messenger.EditMessageText(ctx, chatID, messageID, text, notification.StatusKeyboard(updated.ID)); err != nil {
		h.logger.Warn("failed to edit order message",
			zap.String("order_id", orderID),
			zap.Int64("message_id", messageID),
			zap.Error(err),
		)
	}
	return nil
}

// answer stops the client-side spinner on the pressed button
func (h *Handler) answer(ctx context.Context, callbackID string) {
	if callbackID == "" {
		return
	}
	if err := h.messenger.AnswerCallbackQuery(ctx, callbackID, ""); err != nil {
		h.logger.Warn("failed to answer callback query", zap.String("callback_id", callbackID), zap.Error(err))
	}
}

// reply sends text to the admin chat; delivery failures are only logged
func (h *Handler) reply(ctx context.Context, chatID int64, text string, markup *chat.InlineKeyboardMarkup) {
	if err := h.messenger.SendMessage(ctx, chatID, text, markup); err != nil {
		h.logger.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) record(kind string) {
	if h.recorder != nil {
		h.recorder.RecordWebhookUpdate(kind)
	}
}

// normalizeCommand lower-cases the text and drops a trailing @botname
func normalizeCommand(text string) string {
	cmd := strings.ToLower(strings.TrimSpace(text))
	if i := strings.IndexByte(cmd, '@'); i > 0 && strings.HasPrefix(cmd, "/") {
		cmd = cmd[:i]
	}
	return cmd
}

func parseCallbackData(data string) (action, orderID, value string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
