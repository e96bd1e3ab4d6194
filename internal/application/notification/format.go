package notification

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/chat"
	"github.com/bignstrong/RailGuard/internal/domain/order"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DateLayout renders order timestamps the way shop staff read them
const DateLayout = "02.01.2006, 15:04:05"

var printer = message.NewPrinter(language.Russian)

// FormatPrice renders an amount with Russian digit grouping and the rouble sign
func FormatPrice(amount decimal.Decimal) string {
	return printer.Sprint(number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(2))) + "₽"
}

// ContactLine renders the buyer's preferred channel
func ContactLine(c order.Contact) string {
	phone := html.EscapeString(c.Phone)
	switch c.PreferredContact {
	case order.ContactPhone:
		return "📞 Телефон: " + phone
	case order.ContactWhatsApp:
		return fmt.Sprintf("📱 WhatsApp: %s (https://wa.me/%s)", phone, digitsOnly(c.Phone))
	case order.ContactTelegram:
		return "📬 Telegram: " + phone
	}
	return "📱 Контакт: " + phone
}

// NewOrderMessage renders the notification posted when an order is placed
func NewOrderMessage(ev *order.OrderCreatedEvent) string {
	var b strings.Builder
	b.WriteString("🛍 Новый заказ!\n\n")
	b.WriteString(ContactLine(ev.Contact))
	b.WriteString("\n")
	if ev.Contact.Email != "" {
		b.WriteString("📧 Email: " + html.EscapeString(ev.Contact.Email) + "\n")
	}
	b.WriteString("\n💰 Сумма: " + FormatPrice(ev.TotalPrice) + "\n\n")
	b.WriteString("Товары:\n")
	writeItems(&b, ev.Items)
	return b.String()
}

// OrderCard renders an order for the admin chat
func OrderCard(o *order.Order, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Заказ #%s\n", o.ID)
	fmt.Fprintf(&b, "Статус: %s\n", o.Status.Label())
	fmt.Fprintf(&b, "Дата: %s\n", o.CreatedAt.In(loc).Format(DateLayout))
	fmt.Fprintf(&b, "Сумма: %s\n\n", FormatPrice(o.TotalPrice))
	fmt.Fprintf(&b, "Контакт: %s\n", html.EscapeString(o.Contact.Phone))
	if o.Contact.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", html.EscapeString(o.Contact.Email))
	}
	b.WriteString("\nТовары:\n")
	writeItems(&b, o.Items)
	return b.String()
}

// StatusKeyboard returns the status buttons attached to an order card
func StatusKeyboard(id fmt.Stringer) *chat.InlineKeyboardMarkup {
	button := func(text string, status order.Status) chat.InlineKeyboardButton {
		return chat.InlineKeyboardButton{
			Text:         text,
			CallbackData: fmt.Sprintf("status:%s:%s", id, status),
		}
	}
	return &chat.InlineKeyboardMarkup{
		InlineKeyboard: [][]chat.InlineKeyboardButton{{
			button("✅ Выполнен", order.StatusCompleted),
			button("🔄 В обработке", order.StatusProcessing),
			button("❌ Отменён", order.StatusCancelled),
		}},
	}
}

// StatsReport renders order statistics with at most top leaderboard rows
func StatsReport(s *order.Stats, top int) string {
	var b strings.Builder
	b.WriteString("📊 Статистика заказов:\n\n")
	fmt.Fprintf(&b, "Всего заказов: %d\n", s.TotalOrders)
	fmt.Fprintf(&b, "Выполнено заказов: %d\n", s.CompletedOrders)
	fmt.Fprintf(&b, "Общая выручка: %s\n", FormatPrice(s.CompletedRevenue))
	fmt.Fprintf(&b, "Средний чек: %s\n\n", FormatPrice(s.AverageCheck.Round(0)))
	fmt.Fprintf(&b, "🏆 Топ %d товаров:\n", top)
	rows := s.TopProducts(top)
	for i, p := range rows {
		fmt.Fprintf(&b, "- %s:\n    Продано: %d шт.\n    Выручка: %s", html.EscapeString(p.Title), p.Quantity, FormatPrice(p.Revenue))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeItems(b *strings.Builder, items []order.Item) {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("- %s (%d шт.)", html.EscapeString(item.Title), item.Quantity)
	}
	b.WriteString(strings.Join(lines, "\n"))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
