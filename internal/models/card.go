package models

import (
	"fmt"

	"github.com/example/vitrina/internal/utils"
)

// StoredCard is a payment card kept for a user together with its Payme token.
type StoredCard struct {
	BaseModel
	UserID       uint    `gorm:"index;not null" json:"-"`
	CardNumber   string  `gorm:"size:16;not null" json:"-"`
	CardHolder   string  `gorm:"size:255;not null" json:"card_holder"`
	ExpiryMonth  int     `gorm:"not null" json:"expiry_month"`
	ExpiryYear   int     `gorm:"not null" json:"expiry_year"`
	GatewayToken *string `gorm:"size:255" json:"-"`
	Verified     bool    `gorm:"not null;default:false" json:"verified"`
}

// TableName keeps the historical table name.
func (StoredCard) TableName() string {
	return "stored_cards"
}

// Masked returns the card number with everything but the last four digits hidden.
func (c StoredCard) Masked() string {
	return utils.MaskCardNumber(c.CardNumber)
}

// Usable reports whether the card can be charged.
func (c StoredCard) Usable() bool {
	return c.Verified && c.GatewayToken != nil && *c.GatewayToken != ""
}

// Registered reports whether the card has a gateway token.
func (c StoredCard) Registered() bool {
	return c.GatewayToken != nil && *c.GatewayToken != ""
}

// Expire formats the expiry as MMYY.
func (c StoredCard) Expire() string {
	return fmt.Sprintf("%02d%02d", c.ExpiryMonth, c.ExpiryYear%100)
}

// CardView is the public representation of a StoredCard.
type CardView struct {
	ID           uint   `json:"id"`
	MaskedNumber string `json:"masked_number"`
	CardHolder   string `json:"card_holder"`
	ExpiryMonth  int    `json:"expiry_month"`
	ExpiryYear   int    `json:"expiry_year"`
	Verified     bool   `json:"verified"`
	Registered   bool   `json:"registered"`
}

// View builds the response shape without the full number or token.
func (c StoredCard) View() CardView {
	return CardView{
		ID:           c.ID,
		MaskedNumber: c.Masked(),
		CardHolder:   c.CardHolder,
		ExpiryMonth:  c.ExpiryMonth,
		ExpiryYear:   c.ExpiryYear,
		Verified:     c.Verified,
		Registered:   c.Registered(),
	}
}
