package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/construpro/construpro-backend/internal/products"
	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
)

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDetail, error)
}

// AddItemInput is the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// ItemAdjustment caps one line item to a new quantity.
type ItemAdjustment struct {
	ItemID      uuid.UUID
	NewQuantity decimal.Decimal
}

// Service exposes cart reads and mutations. Every mutation that changes the
// order-value basis drops an applied coupon: a stale discount must not
// survive a cart change.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartRecord, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, itemID uuid.UUID, quantity decimal.Decimal) (*models.CartRecord, error)
	RemoveItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (*models.CartRecord, error)
	AdjustItems(ctx context.Context, userID uuid.UUID, adjustments []ItemAdjustment) (*models.CartRecord, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	products productLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	return s.repo.GetOrCreateActiveCart(ctx, userID)
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartRecord, error) {
	detail, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	prod := detail.Product
	if !prod.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available")
	}
	if err := ValidateQuantity(input.Quantity, prod.QuantityControl, prod.ConversionValue); err != nil {
		return nil, err
	}

	cart, err := s.repo.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItemByProduct(ctx, cart.ID, prod.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		merged := existing.Quantity.Add(input.Quantity)
		if err := ValidateQuantity(merged, prod.QuantityControl, prod.ConversionValue); err != nil {
			return nil, err
		}
		existing.Quantity = merged
		existing.Status = enums.CartItemStatusOK
		if err := s.repo.SaveItem(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		item := models.CartItem{
			CartID:          cart.ID,
			ProductID:       prod.ID,
			VendorID:        prod.VendorID,
			Quantity:        input.Quantity,
			PriceAtAddCents: detail.EffectivePriceCents,
			Unit:            prod.Unit,
			QuantityControl: prod.QuantityControl,
			ConversionValue: prod.ConversionValue,
			Status:          enums.CartItemStatusOK,
		}
		if err := s.repo.CreateItem(ctx, &item); err != nil {
			return nil, err
		}
	}

	if err := s.invalidateCoupon(ctx, cart); err != nil {
		return nil, err
	}
	return s.repo.GetActiveCart(ctx, userID)
}

func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, itemID uuid.UUID, quantity decimal.Decimal) (*models.CartRecord, error) {
	cart, err := s.requireActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err := ValidateQuantity(quantity, item.QuantityControl, item.ConversionValue); err != nil {
		return nil, err
	}

	item.Quantity = quantity
	item.Status = enums.CartItemStatusOK
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	if err := s.invalidateCoupon(ctx, cart); err != nil {
		return nil, err
	}
	return s.repo.GetActiveCart(ctx, userID)
}

func (s *service) RemoveItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (*models.CartRecord, error) {
	if len(itemIDs) == 0 {
		return s.repo.GetActiveCart(ctx, userID)
	}
	cart, err := s.requireActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID, itemIDs); err != nil {
		return nil, err
	}
	if err := s.invalidateCoupon(ctx, cart); err != nil {
		return nil, err
	}
	return s.repo.GetActiveCart(ctx, userID)
}

// AdjustItems caps quantities to stock-validated values. The capped value is
// trusted as-is: it came from the availability check, not from user input,
// so the package-multiple rule is not re-applied here.
func (s *service) AdjustItems(ctx context.Context, userID uuid.UUID, adjustments []ItemAdjustment) (*models.CartRecord, error) {
	if len(adjustments) == 0 {
		return s.repo.GetActiveCart(ctx, userID)
	}
	cart, err := s.requireActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, adj := range adjustments {
		if adj.NewQuantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjusted quantity must be greater than zero")
		}
		item, err := s.repo.FindItem(ctx, cart.ID, adj.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		item.Quantity = adj.NewQuantity
		item.Status = enums.CartItemStatusOK
		if err := s.repo.SaveItem(ctx, item); err != nil {
			return nil, err
		}
	}
	if err := s.invalidateCoupon(ctx, cart); err != nil {
		return nil, err
	}
	return s.repo.GetActiveCart(ctx, userID)
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.GetActiveCart(ctx, userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ID)
	}
	if err := s.repo.DeleteItems(ctx, cart.ID, ids); err != nil {
		return err
	}
	return s.repo.ClearCoupon(ctx, cart.ID)
}

func (s *service) requireActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	cart, err := s.repo.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	return cart, nil
}

// invalidateCoupon drops an applied coupon after a mutation and records a
// warning so the buyer knows why the discount disappeared.
func (s *service) invalidateCoupon(ctx context.Context, cart *models.CartRecord) error {
	if cart.CouponCode == nil {
		return nil
	}
	code := *cart.CouponCode
	if err := s.repo.ClearCoupon(ctx, cart.ID); err != nil {
		return err
	}
	warning := models.CartWarning{
		CartID:  cart.ID,
		Type:    enums.CartWarningTypeCouponRemoved,
		Message: fmt.Sprintf("Cupom %s removido: o carrinho foi alterado, aplique novamente", code),
	}
	if err := s.repo.AddWarnings(ctx, []models.CartWarning{warning}); err != nil {
		return err
	}
	logCtx := s.logg.WithCartID(ctx, cart.ID.String())
	s.logg.Info(logCtx, "applied coupon invalidated by cart mutation")
	return nil
}
