package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderProduct is the snapshot of one purchased line.
type OrderProduct struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Order is written once per checkout and never modified afterwards.
// NeedsReconciliation marks a charged order whose stock could not be taken.
type Order struct {
	BaseModel
	OrderID             uuid.UUID                          `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`
	UserID              uint                               `gorm:"index;not null" json:"user_id"`
	Products            datatypes.JSONType[[]OrderProduct] `json:"products"`
	TotalPrice          decimal.Decimal                    `gorm:"type:numeric(12,2);not null" json:"total_price"`
	PaymentStatus       PaymentStatus                      `gorm:"not null;default:0" json:"payment_status"`
	ReceiptID           string                             `gorm:"size:64;index" json:"-"`
	NeedsReconciliation bool                               `gorm:"not null;default:false;index" json:"needs_reconciliation"`
	Address             string                             `gorm:"size:500" json:"address,omitempty"`
	Phone               string                             `gorm:"size:32" json:"phone,omitempty"`
	FullName            string                             `gorm:"size:255" json:"full_name,omitempty"`
}

// BeforeCreate assigns the public order id.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderID == uuid.Nil {
		o.OrderID = uuid.New()
	}
	return nil
}
