package enums

import "fmt"

// CartWarningType enumerates warning reasons recorded against a cart.
type CartWarningType string

const (
	CartWarningTypeOutOfStockRemoved CartWarningType = "out_of_stock_removed"
	CartWarningTypeLimitedStock      CartWarningType = "limited_stock"
	CartWarningTypeCouponRemoved     CartWarningType = "coupon_removed"
	CartWarningTypePriceChanged      CartWarningType = "price_changed"
)

var validCartWarningTypes = []CartWarningType{
	CartWarningTypeOutOfStockRemoved,
	CartWarningTypeLimitedStock,
	CartWarningTypeCouponRemoved,
	CartWarningTypePriceChanged,
}

// String implements fmt.Stringer.
func (c CartWarningType) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CartWarningType) IsValid() bool {
	for _, candidate := range validCartWarningTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartWarningType converts raw input into a CartWarningType.
func ParseCartWarningType(value string) (CartWarningType, error) {
	for _, candidate := range validCartWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart warning type %q", value)
}
