package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bignstrong/RailGuard/internal/application/admin"
	"github.com/bignstrong/RailGuard/internal/domain/chat"
	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUpdateHandler is a mock implementation of UpdateHandler
type MockUpdateHandler struct {
	mock.Mock
}

func (m *MockUpdateHandler) HandleUpdate(ctx context.Context, u chat.Update) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

const ordersUpdate = `{"update_id":42,"message":{"message_id":7,"from":{"id":1001},"chat":{"id":1001},"text":"/orders"}}`

func webhookRequest(t *testing.T, h *WebhookHandler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/api/telegram/webhook", h.Handle)

	req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_Responses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "handled", err: nil, wantStatus: http.StatusOK, wantBody: `{"message":"OK"}`},
		{name: "unknown sender", err: shared.ErrForbidden, wantStatus: http.StatusForbidden, wantBody: `{"message":"Unauthorized"}`},
		{name: "no text", err: admin.ErrEmptyMessage, wantStatus: http.StatusBadRequest, wantBody: `{"message":"No message text"}`},
		{name: "store failure", err: errors.New("failed to list orders: storage unavailable"), wantStatus: http.StatusInternalServerError, wantBody: `{"message":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := new(MockUpdateHandler)
			updates.On("HandleUpdate", mock.Anything, mock.MatchedBy(func(u chat.Update) bool {
				return u.UpdateID == 42 && u.Message != nil && u.Message.Text == "/orders"
			})).Return(tt.err)

			w := webhookRequest(t, NewWebhookHandler(updates, ""), ordersUpdate, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			updates.AssertExpectations(t)
		})
	}
}

func TestWebhookHandler_MalformedJSON(t *testing.T) {
	updates := new(MockUpdateHandler)

	w := webhookRequest(t, NewWebhookHandler(updates, ""), `{"update_id":`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"No message text"}`, w.Body.String())
	updates.AssertNotCalled(t, "HandleUpdate", mock.Anything, mock.Anything)
}

func TestWebhookHandler_SecretToken(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		updates := new(MockUpdateHandler)
		w := webhookRequest(t, NewWebhookHandler(updates, "s3cret"), ordersUpdate, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
		updates.AssertNotCalled(t, "HandleUpdate", mock.Anything, mock.Anything)
	})

	t.Run("wrong token", func(t *testing.T) {
		updates := new(MockUpdateHandler)
		w := webhookRequest(t, NewWebhookHandler(updates, "s3cret"), ordersUpdate,
			map[string]string{SecretTokenHeader: "guess"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		updates.AssertNotCalled(t, "HandleUpdate", mock.Anything, mock.Anything)
	})

	t.Run("matching token", func(t *testing.T) {
		updates := new(MockUpdateHandler)
		updates.On("HandleUpdate", mock.Anything, mock.Anything).Return(nil)

		w := webhookRequest(t, NewWebhookHandler(updates, "s3cret"), ordersUpdate,
			map[string]string{SecretTokenHeader: "s3cret"})

		assert.Equal(t, http.StatusOK, w.Code)
		updates.AssertExpectations(t)
	})
}

type recentOrders []*order.Order

func (r recentOrders) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	return r, nil
}

func (r recentOrders) UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error) {
	return nil, shared.ErrNotFound
}

func (r recentOrders) Stats(ctx context.Context) (*order.Stats, error) {
	return &order.Stats{}, nil
}

// flakyMessenger fails the first sendMessage call and accepts the rest
type flakyMessenger struct {
	mu    sync.Mutex
	sends int
}

func (m *flakyMessenger) Configured() bool { return true }

func (m *flakyMessenger) SendMessage(ctx context.Context, chatID int64, text string, markup *chat.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	if m.sends == 1 {
		return errors.New("Bad Gateway")
	}
	return nil
}

func (m *flakyMessenger) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *chat.InlineKeyboardMarkup) error {
	return nil
}

func (m *flakyMessenger) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	return nil
}

func TestWebhookHandler_ChatDeliveryFailureStillOK(t *testing.T) {
	var recent recentOrders
	for range 3 {
		o, err := order.NewOrder(
			[]order.Item{{ID: "f-1", Title: "Фильтр", Price: decimal.NewFromInt(900), Quantity: 1, Image: "/f.jpg"}},
			order.Contact{Phone: "+7 (999) 123-45-67", PreferredContact: order.ContactPhone},
			decimal.NewFromInt(900),
		)
		require.NoError(t, err)
		recent = append(recent, o)
	}
	messenger := &flakyMessenger{}
	updates := admin.NewHandler(recent, messenger, chat.NewAllowList(1001), zap.NewNop())

	w := webhookRequest(t, NewWebhookHandler(updates, ""), ordersUpdate, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"OK"}`, w.Body.String())
	assert.Equal(t, 3, messenger.sends)
}
