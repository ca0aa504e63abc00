package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1,234,567 UZS", FormatPrice(decimal.NewFromInt(1234567), ""))
	assert.Equal(t, "240 UZS", FormatPrice(decimal.RequireFromString("240.99"), "UZS"))
	assert.Equal(t, "-1,000 USD", FormatPrice(decimal.NewFromInt(-1000), "USD"))
}

func TestNotifyNewOrderSendsEscapedHTML(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "42")
	svc.baseURL = srv.URL

	err := svc.NotifyNewOrder(OrderNotification{
		OrderID:     "order-1",
		Items:       []OrderItemNotification{{Name: "Rose <Oud>", Quantity: 2, Price: decimal.NewFromInt(100000)}},
		TotalAmount: decimal.NewFromInt(200000),
		FullName:    "Ali",
		Paid:        true,
		StatusLabel: "Чек оплачен.",
	})
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", path)
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "Rose &lt;Oud&gt;")
	assert.Contains(t, got.Text, "200,000 UZS")
	assert.Contains(t, got.Text, "✅ Чек оплачен.")
}

func TestNotifyNewOrderWithoutChatIsNoop(t *testing.T) {
	svc := NewTelegramService("bot-token", "")
	assert.NoError(t, svc.NotifyNewOrder(OrderNotification{}))
}

func TestSendMessageNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := NewTelegramService("bot-token", "42")
	svc.baseURL = srv.URL
	assert.Error(t, svc.SendToAdmin("hi"))
}
