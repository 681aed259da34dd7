package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/enums"
)

// CartItem is a line item snapshot. Quantity is decimal because products sold
// by weight or length accept fractional amounts; package-controlled products
// additionally require integer multiples of ConversionValue.
type CartItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	CartID          uuid.UUID             `gorm:"column:cart_id;type:uuid;not null"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	VendorID        uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null"`
	Quantity        decimal.Decimal       `gorm:"column:quantity;type:numeric;not null"`
	PriceAtAddCents int64                 `gorm:"column:price_at_add_cents;not null"`
	Unit            string                `gorm:"column:unidade_medida;not null;default:'unidade'"`
	QuantityControl enums.QuantityControl `gorm:"column:controle_quantidade;not null;default:'livre'"`
	ConversionValue decimal.Decimal       `gorm:"column:valor_conversao;type:numeric;not null;default:1"`
	Status          enums.CartItemStatus  `gorm:"column:status;type:cart_item_status;not null;default:'ok'"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
