package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/example/vitrina/internal/i18n"
)

// Product is a catalog item. Name and description are stored per locale.
type Product struct {
	BaseModel
	Name          datatypes.JSONType[i18n.Text] `json:"translations_name"`
	Description   datatypes.JSONType[i18n.Text] `json:"translations_description"`
	Brand         string                        `gorm:"size:255;index" json:"brand"`
	Thumbnail     string                        `json:"thumbnail"`
	Price         decimal.Decimal               `gorm:"type:numeric(12,2);not null" json:"price"`
	DiscountPrice decimal.NullDecimal           `gorm:"type:numeric(12,2)" json:"discount_price"`
	Stock         int                           `gorm:"not null;default:0" json:"stock"`
	Code          string                        `gorm:"size:64" json:"code"`
	PackageCode   string                        `gorm:"size:64" json:"package_code"`
	IsPopular     bool                          `gorm:"index" json:"is_popular"`
	IsNew         bool                          `gorm:"index" json:"is_new"`
}

// HasDiscount reports whether a non-zero discount price is set.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice.Valid && !p.DiscountPrice.Decimal.IsZero()
}

// EffectivePrice is the discount price when present, otherwise the base price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// LocalizedName returns the product name in locale, with fallback.
func (p Product) LocalizedName(locale, fallback string) string {
	return p.Name.Data().Get(locale, fallback)
}
