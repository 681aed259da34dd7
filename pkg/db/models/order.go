package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/construpro/construpro-backend/pkg/enums"
)

// Order is created at checkout once the atomic reservation succeeds.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:(gen_random_uuid());primaryKey"`
	UserID              uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	CartID              *uuid.UUID        `gorm:"column:cart_id;type:uuid"`
	Status              enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	SubtotalCents       int64             `gorm:"column:subtotal_cents;not null"`
	DiscountCents       int64             `gorm:"column:discount_cents;not null;default:0"`
	TotalCents          int64             `gorm:"column:total_cents;not null"`
	CouponCode          *string           `gorm:"column:coupon_code"`
	ShippingCep         string            `gorm:"column:shipping_cep;not null"`
	ShippingCity        string            `gorm:"column:shipping_city"`
	ShippingState       string            `gorm:"column:shipping_state"`
	ShippingZone        *string           `gorm:"column:shipping_zone"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	LineItems []OrderLineItem `gorm:"foreignKey:OrderID;references:ID"`
}
