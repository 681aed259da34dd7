package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

// ValidateQuantity enforces the product's quantity-control rule. Free control
// only requires a positive amount; "multiplo" products must be bought in
// whole multiples of the package conversion factor.
func ValidateQuantity(quantity decimal.Decimal, control enums.QuantityControl, conversion decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if control != enums.QuantityControlMultiple {
		return nil
	}
	if conversion.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "package conversion value must be positive")
	}
	ratio := quantity.Div(conversion)
	if !ratio.Equal(ratio.Truncate(0)) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be a multiple of %s", conversion.String()))
	}
	return nil
}
