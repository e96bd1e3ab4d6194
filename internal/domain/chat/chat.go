// Package chat describes the inbound updates and outbound calls exchanged
// with the chat platform used by shop staff.
package chat

import "context"

// User is the sender of a message or button press
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// Chat identifies a conversation
type Chat struct {
	ID int64 `json:"id"`
}

// Message is a text message event
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// CallbackQuery is an inline button press
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

// Update is one inbound webhook delivery
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// SenderID returns the id of whoever triggered the update
func (u *Update) SenderID() (int64, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID, true
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID, true
	}
	return 0, false
}

// InlineKeyboardButton is a button attached to a message
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboardMarkup is a grid of buttons attached to a message
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// Messenger sends and edits chat messages
type Messenger interface {
	// Configured reports whether delivery credentials are present
	Configured() bool
	SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
}

// AllowList is the set of sender ids permitted to issue admin commands
type AllowList struct {
	ids map[int64]struct{}
}

// NewAllowList builds an allow-list from ids
func NewAllowList(ids ...int64) AllowList {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return AllowList{ids: m}
}

// Contains reports whether id is allowed
func (a AllowList) Contains(id int64) bool {
	_, ok := a.ids[id]
	return ok
}

// Len returns the number of allowed ids
func (a AllowList) Len() int {
	return len(a.ids)
}
