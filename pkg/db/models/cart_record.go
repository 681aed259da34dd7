package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/construpro/construpro-backend/pkg/enums"
)

// CartRecord is the buyer's active cart. At most one active record exists per
// user; applied coupons live here so cart mutations can invalidate them.
type CartRecord struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	UserID              uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status              enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	CouponCode          *string          `gorm:"column:coupon_code"`
	CouponDiscountCents *int64           `gorm:"column:coupon_discount_cents"`
	LastValidatedAt     *time.Time       `gorm:"column:last_validated_at"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Items    []CartItem    `gorm:"foreignKey:CartID;references:ID"`
	Warnings []CartWarning `gorm:"foreignKey:CartID;references:ID"`
}
