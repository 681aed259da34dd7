package enums

import "fmt"

// QuantityControl governs how a product's quantity may be changed. Products
// sold by whole packages ("multiplo") only accept integer multiples of their
// package conversion factor.
type QuantityControl string

const (
	QuantityControlFree     QuantityControl = "livre"
	QuantityControlMultiple QuantityControl = "multiplo"
)

var validQuantityControls = []QuantityControl{
	QuantityControlFree,
	QuantityControlMultiple,
}

// String implements fmt.Stringer.
func (q QuantityControl) String() string {
	return string(q)
}

// IsValid reports whether the value is known.
func (q QuantityControl) IsValid() bool {
	for _, candidate := range validQuantityControls {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuantityControl converts raw input into a QuantityControl.
func ParseQuantityControl(value string) (QuantityControl, error) {
	for _, candidate := range validQuantityControls {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity control %q", value)
}
