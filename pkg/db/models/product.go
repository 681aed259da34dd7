package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/enums"
	"github.com/construpro/construpro-backend/pkg/types"
)

// Product is a vendor-owned catalog entry.
type Product struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	VendorID        uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null"`
	Name            string                `gorm:"column:name;not null"`
	Description     *string               `gorm:"column:description"`
	Unit            string                `gorm:"column:unidade_medida;not null;default:'unidade'"`
	QuantityControl enums.QuantityControl `gorm:"column:controle_quantidade;not null;default:'livre'"`
	ConversionValue decimal.Decimal       `gorm:"column:valor_conversao;type:numeric;not null;default:1"`
	PriceCents      int64                 `gorm:"column:price_cents;not null"`
	PromoPriceCents *int64                `gorm:"column:promo_price_cents"`
	Images          types.ImageList       `gorm:"column:images;type:jsonb;serializer:json"`
	IsActive        bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	Inventory *InventoryItem `gorm:"foreignKey:ProductID;references:ID"`
}

// EffectivePriceCents returns the promotional price when present.
func (p Product) EffectivePriceCents() int64 {
	if p.PromoPriceCents != nil && *p.PromoPriceCents > 0 {
		return *p.PromoPriceCents
	}
	return p.PriceCents
}
