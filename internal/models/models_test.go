package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/example/vitrina/internal/i18n"
)

func strPtr(s string) *string { return &s }

func TestStoredCardMasked(t *testing.T) {
	card := StoredCard{CardNumber: "8600123412345678"}
	assert.Equal(t, "**** **** **** 5678", card.Masked())
	assert.NotContains(t, card.Masked(), "8600")

	assert.Equal(t, "**** **** **** ****", StoredCard{CardNumber: "12"}.Masked())
}

func TestStoredCardUsable(t *testing.T) {
	assert.False(t, StoredCard{Verified: true}.Usable())
	assert.False(t, StoredCard{Verified: true, GatewayToken: strPtr("")}.Usable())
	assert.False(t, StoredCard{GatewayToken: strPtr("tok")}.Usable())
	assert.True(t, StoredCard{Verified: true, GatewayToken: strPtr("tok")}.Usable())
}

func TestStoredCardExpire(t *testing.T) {
	assert.Equal(t, "0327", StoredCard{ExpiryMonth: 3, ExpiryYear: 2027}.Expire())
	assert.Equal(t, "1130", StoredCard{ExpiryMonth: 11, ExpiryYear: 30}.Expire())
}

func TestStoredCardViewHidesSecrets(t *testing.T) {
	view := StoredCard{CardNumber: "8600123412345678", GatewayToken: strPtr("tok"), Verified: true}.View()
	assert.Equal(t, "**** **** **** 5678", view.MaskedNumber)
	assert.True(t, view.Registered)
}

func TestProductEffectivePrice(t *testing.T) {
	plain := Product{Price: decimal.RequireFromString("100.00")}
	assert.False(t, plain.HasDiscount())
	assert.True(t, plain.EffectivePrice().Equal(decimal.NewFromInt(100)))

	zero := Product{Price: decimal.NewFromInt(50), DiscountPrice: decimal.NewNullDecimal(decimal.Zero)}
	assert.False(t, zero.HasDiscount())
	assert.True(t, zero.EffectivePrice().Equal(decimal.NewFromInt(50)))

	discounted := Product{Price: decimal.NewFromInt(50), DiscountPrice: decimal.NewNullDecimal(decimal.NewFromInt(40))}
	assert.True(t, discounted.HasDiscount())
	assert.True(t, discounted.EffectivePrice().Equal(decimal.NewFromInt(40)))
}

func TestProductLocalizedName(t *testing.T) {
	p := Product{Name: datatypes.NewJSONType(i18n.Text{"ru": "Духи", "en": "Perfume"})}
	assert.Equal(t, "Perfume", p.LocalizedName("en", "ru"))
	assert.Equal(t, "Духи", p.LocalizedName("ko", "ru"))
}

func TestPaymentStatus(t *testing.T) {
	assert.True(t, PaymentPaid.IsPaid())
	assert.False(t, PaymentCancelled.IsPaid())
	assert.True(t, PaymentCancelled.IsTerminal())
	assert.False(t, PaymentPaused.IsTerminal())

	for _, code := range []int{0, 1, 2, 3, 4, 5, 6, 20, 21, 30, 50} {
		assert.True(t, PaymentStatus(code).Valid(), "code %d", code)
	}
	assert.False(t, PaymentStatus(7).Valid())

	assert.Equal(t, "paid", PaymentPaid.Label("en"))
	assert.Equal(t, "Чек отменен.", PaymentCancelled.Label("ru"))
	assert.Equal(t, "paid", PaymentPaid.Label("ko"))
	assert.Equal(t, "unknown status 7", PaymentStatus(7).Label("en"))
}
