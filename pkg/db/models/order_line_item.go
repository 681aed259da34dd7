package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem snapshots a purchased line at reservation time.
type OrderLineItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID      *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VendorID       uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null"`
	Name           string          `gorm:"column:name;not null"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric;not null"`
	UnitPriceCents int64           `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64           `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
