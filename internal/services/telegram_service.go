package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	httpClient  *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPI,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderID     string
	Items       []OrderItemNotification
	TotalAmount decimal.Decimal
	Currency    string
	FullName    string
	Phone       string
	Address     string
	Paid        bool
	StatusLabel string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// OrderNotifier receives new order notifications.
type OrderNotifier interface {
	NotifyNewOrder(order OrderNotification) error
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "UZS"
	}
	str := amount.Truncate(0).String()
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return sign + result.String() + " " + currency
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	var itemsList strings.Builder
	for i, item := range order.Items {
		itemTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(itemTotal, order.Currency),
		))
	}

	statusText := "⏳ " + order.StatusLabel
	if order.Paid {
		statusText = "✅ " + order.StatusLabel
	}

	message := fmt.Sprintf(`<b>🛒 YANGI BUYURTMA!</b>
<b>📋 Buyurtma:</b> %s
<b>👤 Mijoz:</b> %s
<b>📞 Telefon:</b> %s
<b>📍 Manzil:</b> %s
<b>📦 Mahsulotlar:</b>
%s
<b>💰 Jami:</b> %s
<b>💳 To'lov:</b> Payme
<b>📍 Status:</b> %s
━━━━━━━━━━━━━━━━━━`,
		order.OrderID,
		html.EscapeString(order.FullName),
		html.EscapeString(order.Phone),
		html.EscapeString(order.Address),
		itemsList.String(),
		FormatPrice(order.TotalAmount, order.Currency),
		statusText,
	)

	return s.SendToAdmin(strings.TrimSpace(message))
}
