// Package telegram is a minimal Bot API client covering the calls the shop
// makes: sending order notifications and answering admin commands.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bignstrong/RailGuard/internal/domain/chat"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxResponseSize = 1 << 20
	parseModeHTML   = "HTML"
)

var (
	// ErrNotConfigured is returned when the bot token is empty
	ErrNotConfigured = errors.New("telegram: bot token not configured")
	// ErrUnavailable is returned while the circuit is open
	ErrUnavailable = errors.New("telegram: api temporarily unavailable")
)

// APIError is a response with ok=false
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed (%d): %s", e.Method, e.Code, e.Description)
}

// countsAsFailure reports whether the error says something about API health
// rather than about the request itself
func (e *APIError) countsAsFailure() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Client calls the Bot API with a per-call timeout, a rate limit and a
// circuit breaker around transport failures
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *zap.Logger
}

// NewClient creates a client. An empty token yields a client whose calls
// return ErrNotConfigured.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "telegram",
		Timeout: cfg.BreakerReset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerTrips
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.countsAsFailure()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c, nil
}

// Configured reports whether a bot token is set
func (c *Client) Configured() bool {
	return c.cfg.Token != ""
}

type sendMessageRequest struct {
	ChatID      int64                      `json:"chat_id"`
	Text        string                     `json:"text"`
	ParseMode   string                     `json:"parse_mode"`
	ReplyMarkup *chat.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage posts an HTML-formatted message to chatID
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *chat.InlineKeyboardMarkup) error {
	_, err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseModeHTML,
		ReplyMarkup: markup,
	})
	return err
}

type editMessageTextRequest struct {
	ChatID      int64                      `json:"chat_id"`
	MessageID   int64                      `json:"message_id"`
	Text        string                     `json:"text"`
	ParseMode   string                     `json:"parse_mode"`
	ReplyMarkup *chat.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageText replaces the text and keyboard of an existing message.
// Editing to identical content is treated as success.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *chat.InlineKeyboardMarkup) error {
	_, err := c.call(ctx, "editMessageText", editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   parseModeHTML,
		ReplyMarkup: markup,
	})
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified") {
		return nil
	}
	return err
}

type answerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

// AnswerCallbackQuery stops the loading indicator on a pressed button
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	_, err := c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	})
	return err
}

func (c *Client) call(ctx context.Context, method string, payload any) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("telegram: %s rate limit wait: %w", method, err)
	}

	result, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, method)
	}
	return result, err
}

func (c *Client) do(ctx context.Context, method string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.cfg.APIBaseURL, "/"), c.cfg.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// transport errors embed the URL, which carries the token
		return nil, fmt.Errorf("telegram: %s request failed: %w", method, redact(err, c.cfg.Token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &APIError{Method: method, Code: resp.StatusCode, Description: "malformed response"}
	}
	if !parsed.OK {
		code := parsed.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &APIError{Method: method, Code: code, Description: parsed.Description}
	}

	c.logger.Debug("telegram call succeeded", zap.String("method", method))
	return parsed.Result, nil
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return &redactedError{
		msg:   strings.ReplaceAll(err.Error(), token, "<token>"),
		cause: err,
	}
}

var _ chat.Messenger = (*Client)(nil)
