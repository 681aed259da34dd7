package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/construpro/construpro-backend/pkg/enums"
)

// CartWarning records a stock or coupon event surfaced to the buyer, written
// by the re-validation sweep and by cart mutations.
type CartWarning struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	CartID    uuid.UUID             `gorm:"column:cart_id;type:uuid;not null"`
	ItemID    *uuid.UUID            `gorm:"column:item_id;type:uuid"`
	ProductID *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	Type      enums.CartWarningType `gorm:"column:type;type:cart_warning_type;not null"`
	Message   string                `gorm:"column:message;not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
