package coupons

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/db/models"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
)

type cartStore interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	SetCoupon(ctx context.Context, cartID uuid.UUID, code string, discountCents int64) error
	ClearCoupon(ctx context.Context, cartID uuid.UUID) error
}

type productLoader interface {
	FindManyWithInventory(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type validator interface {
	Validate(ctx context.Context, req ValidationRequest) (*ValidationResponse, error)
}

// ApplyResult is what the buyer sees after a successful application.
type ApplyResult struct {
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
	Message       string `json:"message,omitempty"`
}

// Service applies and removes coupons on the active cart. Validation itself
// is delegated to the external function; this service owns the cart side.
type Service interface {
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*ApplyResult, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	carts     cartStore
	products  productLoader
	validator validator
	logg      *logger.Logger
}

// NewService wires the coupon service.
func NewService(carts cartStore, products productLoader, v validator, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if v == nil {
		return nil, fmt.Errorf("validator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{carts: carts, products: products, validator: v, logg: logg}, nil
}

func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*ApplyResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	cart, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	submitted, subtotal := BuildSubmission(ctx, s.logg, s.products, cart.Items)
	if len(submitted) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid items to apply a coupon to")
	}

	verdict, err := s.validator.Validate(ctx, ValidationRequest{
		Code:       normalized,
		OrderValue: subtotal,
		UserID:     userID.String(),
		CartItems:  submitted,
	})
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		message := verdict.Message
		if message == "" {
			message = "cupom inválido"
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}

	if err := s.carts.SetCoupon(ctx, cart.ID, normalized, verdict.DiscountCents); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithCartID(ctx, cart.ID.String()), "coupon applied")
	return &ApplyResult{
		Code:          normalized,
		DiscountCents: verdict.DiscountCents,
		Message:       verdict.Message,
	}, nil
}

// RemoveCoupon clears any applied coupon. Removing from a cart without a
// coupon is a no-op, not an error.
func (s *service) RemoveCoupon(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.carts.ClearCoupon(ctx, cart.ID)
}

// BuildSubmission normalizes cart lines into the shape the validation
// function expects and returns the order value in cents. The catalog price
// wins over the add-time snapshot; rows with no resolvable product or no
// positive price are dropped rather than failing the whole call.
func BuildSubmission(ctx context.Context, logg *logger.Logger, products productLoader, items []models.CartItem) ([]SubmittedItem, int64) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != uuid.Nil {
			ids = append(ids, item.ProductID)
		}
	}

	catalog, err := products.FindManyWithInventory(ctx, ids)
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "coupon submission catalog load failed, using add-time prices", err)
		}
		catalog = nil
	}

	out := make([]SubmittedItem, 0, len(items))
	var subtotal int64
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "item_id", item.ID.String()), "dropping cart line without product reference from coupon submission")
			}
			continue
		}

		price := item.PriceAtAddCents
		if product, ok := catalog[item.ProductID]; ok {
			if effective := product.EffectivePriceCents(); effective > 0 {
				price = effective
			}
		}
		if price <= 0 {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "product_id", item.ProductID.String()), "dropping cart line without positive price from coupon submission")
			}
			continue
		}

		out = append(out, SubmittedItem{
			ProductID:  item.ProductID.String(),
			Quantity:   item.Quantity.String(),
			PriceCents: price,
		})
		subtotal += item.Quantity.Mul(decimal.NewFromInt(price)).Round(0).IntPart()
	}
	return out, subtotal
}
