package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cartsvc "github.com/construpro/construpro-backend/internal/cart"
	"github.com/construpro/construpro-backend/internal/cep"
	"github.com/construpro/construpro-backend/internal/checkout/reservation"
	"github.com/construpro/construpro-backend/internal/coupons"
	"github.com/construpro/construpro-backend/internal/shipping"
	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/outbox"
)

type cartStore interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	ClearCoupon(ctx context.Context, cartID uuid.UUID) error
	SetStatusTx(tx *gorm.DB, cartID uuid.UUID, status enums.CartStatus) error
}

type cartRemediator interface {
	RemoveItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (*models.CartRecord, error)
	AdjustItems(ctx context.Context, userID uuid.UUID, adjustments []cartsvc.ItemAdjustment) (*models.CartRecord, error)
}

type cepResolver interface {
	Lookup(ctx context.Context, rawCep string) (*cep.Result, error)
}

type restrictionChecker interface {
	CheckRestriction(ctx context.Context, query shipping.RestrictionQuery) (*shipping.Verdict, error)
}

type couponValidator interface {
	Validate(ctx context.Context, req coupons.ValidationRequest) (*coupons.ValidationResponse, error)
}

type orderWriter interface {
	CreateTx(tx *gorm.DB, order *models.Order) error
}

type eventEmitter interface {
	EmitOnce(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ExecuteInput is the buyer's checkout submission. The coupon is whatever is
// already applied to the cart; it is re-validated here, never trusted.
type ExecuteInput struct {
	Cep string
}

// BlockedItem is a line the vendor will not deliver to the destination.
type BlockedItem struct {
	ItemID    uuid.UUID `json:"item_id"`
	ProductID uuid.UUID `json:"product_id"`
	Message   string    `json:"message"`
}

// AutoFixResult reports what the one-click remediation changed. Cart is the
// post-fix state.
type AutoFixResult struct {
	RemovedItems  []InvalidItem      `json:"removed_items"`
	AdjustedItems []AdjustedItem     `json:"adjusted_items"`
	Cart          *models.CartRecord `json:"-"`
}

// Service runs the checkout pipeline: stock validation, destination
// resolution, restriction and coupon re-checks, then the atomic
// reserve-and-create-order transaction.
type Service interface {
	ValidateStock(ctx context.Context, userID uuid.UUID) (*StockValidationResult, error)
	AutoFix(ctx context.Context, userID uuid.UUID) (*AutoFixResult, error)
	Execute(ctx context.Context, userID uuid.UUID, input ExecuteInput) (*models.Order, error)
}

type service struct {
	carts        cartStore
	remediation  cartRemediator
	products     inventoryLoader
	cepSvc       cepResolver
	restrictions restrictionChecker
	couponCheck  couponValidator
	ordersRepo   orderWriter
	events       eventEmitter
	tx           txRunner
	logg         *logger.Logger
}

// NewService wires the checkout pipeline.
func NewService(
	carts cartStore,
	remediation cartRemediator,
	products inventoryLoader,
	cepSvc cepResolver,
	restrictions restrictionChecker,
	couponCheck couponValidator,
	ordersRepo orderWriter,
	events eventEmitter,
	tx txRunner,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if remediation == nil {
		return nil, fmt.Errorf("cart remediator required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if cepSvc == nil {
		return nil, fmt.Errorf("cep service required")
	}
	if restrictions == nil {
		return nil, fmt.Errorf("restriction checker required")
	}
	if couponCheck == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:        carts,
		remediation:  remediation,
		products:     products,
		cepSvc:       cepSvc,
		restrictions: restrictions,
		couponCheck:  couponCheck,
		ordersRepo:   ordersRepo,
		events:       events,
		tx:           tx,
		logg:         logg,
	}, nil
}

// ValidateStock runs the advisory availability check against the active
// cart. It never mutates anything; the client uses the result to prompt for
// removals or quantity adjustments before attempting checkout.
func (s *service) ValidateStock(ctx context.Context, userID uuid.UUID) (*StockValidationResult, error) {
	cart, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	result := ValidateCartStock(ctx, s.products, s.logg, cart.Items)
	return &result, nil
}

// AutoFix applies the default one-click remediation: exhausted lines are
// removed from the cart, over-stock lines are capped to what remains. It
// never blocks; the client proceeds to checkout afterwards and Execute
// re-checks everything.
func (s *service) AutoFix(ctx context.Context, userID uuid.UUID) (*AutoFixResult, error) {
	record, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	ctx = s.logg.WithCartID(ctx, record.ID.String())

	check := ValidateCartStock(ctx, s.products, s.logg, record.Items)
	result := &AutoFixResult{
		RemovedItems:  check.InvalidItems,
		AdjustedItems: check.AdjustedItems,
	}

	if len(check.InvalidItems) > 0 {
		ids := make([]uuid.UUID, 0, len(check.InvalidItems))
		for _, invalid := range check.InvalidItems {
			ids = append(ids, invalid.ItemID)
		}
		if _, err := s.remediation.RemoveItems(ctx, userID, ids); err != nil {
			return nil, err
		}
	}

	if len(check.AdjustedItems) > 0 {
		adjustments := make([]cartsvc.ItemAdjustment, 0, len(check.AdjustedItems))
		for _, adjusted := range check.AdjustedItems {
			adjustments = append(adjustments, cartsvc.ItemAdjustment{
				ItemID:      adjusted.ItemID,
				NewQuantity: adjusted.NewQuantity,
			})
		}
		if _, err := s.remediation.AdjustItems(ctx, userID, adjustments); err != nil {
			return nil, err
		}
	}

	if len(check.InvalidItems) > 0 || len(check.AdjustedItems) > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"removed_items":  len(check.InvalidItems),
			"adjusted_items": len(check.AdjustedItems),
		}), "cart auto-fixed")
	}

	fixed, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Cart = fixed
	return result, nil
}

func (s *service) Execute(ctx context.Context, userID uuid.UUID, input ExecuteInput) (*models.Order, error) {
	cart, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	ctx = s.logg.WithCartID(ctx, cart.ID.String())

	// Advisory pass first. A cart that still needs removals or adjustments
	// goes back to the client; the reservation below would reject it anyway,
	// this just produces a friendlier error.
	stockCheck := ValidateCartStock(ctx, s.products, s.logg, cart.Items)
	if !stockCheck.IsValid || len(stockCheck.AdjustedItems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart has items without sufficient stock").
			WithDetails(stockCheck)
	}

	destination, err := s.cepSvc.Lookup(ctx, input.Cep)
	if err != nil {
		return nil, err
	}

	if err := s.checkRestrictions(ctx, cart.Items, destination); err != nil {
		return nil, err
	}

	submission, subtotal := coupons.BuildSubmission(ctx, s.logg, s.products, cart.Items)
	if len(submission) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no purchasable items")
	}

	discount, err := s.revalidateCoupon(ctx, cart, userID, submission, subtotal)
	if err != nil {
		return nil, err
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	catalog, err := s.products.FindManyWithInventory(ctx, productIDs(cart.Items))
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		CartID:        &cart.ID,
		Status:        enums.OrderStatusPending,
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TotalCents:    total,
		CouponCode:    cart.CouponCode,
		ShippingCep:   destination.Cep,
		ShippingCity:  destination.City,
		ShippingState: destination.State,
		LineItems:     buildLineItems(cart.Items, catalog),
	}
	if destination.DeliveryZone != "" {
		zone := destination.DeliveryZone
		order.ShippingZone = &zone
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		results, terr := reservation.ReserveInventory(ctx, tx, reservationRequests(cart.Items))
		if terr != nil {
			return terr
		}
		if failed := failedReservations(results); len(failed) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock changed during checkout").
				WithDetails(failed)
		}
		if terr := s.ordersRepo.CreateTx(tx, order); terr != nil {
			return terr
		}
		// Keyed on the cart, not the order: an order id minted above is
		// unique by construction, so only the cart id lets the unique
		// index catch two checkouts racing on the same cart.
		if terr := s.events.EmitOnce(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: map[string]any{
				"order_id":     order.ID,
				"user_id":      userID,
				"cart_id":      cart.ID,
				"total_cents":  order.TotalCents,
				"shipping_cep": order.ShippingCep,
			},
		}); terr != nil {
			if errors.Is(terr, outbox.ErrDuplicateEvent) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already completed for this cart")
			}
			return terr
		}
		return s.carts.SetStatusTx(tx, cart.ID, enums.CartStatusConverted)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "order created")
	return order, nil
}

// checkRestrictions blocks checkout when any vendor refuses delivery to the
// destination. Softer restriction types (freight on demand, higher fee) are
// logged but do not block.
func (s *service) checkRestrictions(ctx context.Context, items []models.CartItem, destination *cep.Result) error {
	var blocked []BlockedItem
	for _, item := range items {
		verdict, err := s.restrictions.CheckRestriction(ctx, shipping.RestrictionQuery{
			VendorID:  item.VendorID.String(),
			ProductID: item.ProductID.String(),
			Cep:       destination.Cep,
			City:      destination.City,
			State:     destination.State,
			IBGE:      destination.IBGE,
		})
		if err != nil {
			return err
		}
		if !verdict.Restricted {
			continue
		}
		if verdict.Type == enums.DeliveryRestrictionNotDelivered {
			message := verdict.Message
			if message == "" {
				message = "não entregamos neste endereço"
			}
			blocked = append(blocked, BlockedItem{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Message:   message,
			})
			continue
		}
		s.logg.Warn(
			s.logg.WithFields(ctx, map[string]any{
				"product_id":       item.ProductID.String(),
				"restriction_type": string(verdict.Type),
			}),
			"delivery restriction noted, checkout allowed",
		)
	}
	if len(blocked) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "some items cannot be delivered to this address").
			WithDetails(blocked)
	}
	return nil
}

// revalidateCoupon re-runs server-side validation for an applied coupon and
// returns the fresh discount. The stored discount is never trusted at
// placement. An invalid coupon is removed from the cart before failing.
func (s *service) revalidateCoupon(ctx context.Context, cart *models.CartRecord, userID uuid.UUID, submission []coupons.SubmittedItem, subtotal int64) (int64, error) {
	if cart.CouponCode == nil || *cart.CouponCode == "" {
		return 0, nil
	}

	verdict, err := s.couponCheck.Validate(ctx, coupons.ValidationRequest{
		Code:       *cart.CouponCode,
		OrderValue: subtotal,
		UserID:     userID.String(),
		CartItems:  submission,
	})
	if err != nil {
		return 0, err
	}
	if !verdict.Valid {
		if clearErr := s.carts.ClearCoupon(ctx, cart.ID); clearErr != nil {
			s.logg.Error(ctx, "failed to clear invalid coupon during checkout", clearErr)
		}
		message := verdict.Message
		if message == "" {
			message = "cupom não é mais válido"
		}
		return 0, pkgerrors.New(pkgerrors.CodeValidation, message)
	}
	return verdict.DiscountCents, nil
}

func productIDs(items []models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != uuid.Nil {
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

// reservationRequests converts cart quantities to whole reservation units.
// Fractional quantities reserve the ceiling: inventory is counted in whole
// units even when the sale unit is fractional.
func reservationRequests(items []models.CartItem) []reservation.InventoryReservationRequest {
	requests := make([]reservation.InventoryReservationRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, reservation.InventoryReservationRequest{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			Qty:        int(item.Quantity.Ceil().IntPart()),
		})
	}
	return requests
}

func failedReservations(results []reservation.InventoryReservationResult) []reservation.InventoryReservationResult {
	var failed []reservation.InventoryReservationResult
	for _, result := range results {
		if !result.Reserved {
			failed = append(failed, result)
		}
	}
	return failed
}

func buildLineItems(items []models.CartItem, catalog map[uuid.UUID]models.Product) []models.OrderLineItem {
	lines := make([]models.OrderLineItem, 0, len(items))
	now := time.Now()
	for _, item := range items {
		name := "produto indisponível"
		price := item.PriceAtAddCents
		if product, ok := catalog[item.ProductID]; ok {
			name = product.Name
			if effective := product.EffectivePriceCents(); effective > 0 {
				price = effective
			}
		}
		productID := item.ProductID
		lines = append(lines, models.OrderLineItem{
			ID:             uuid.New(),
			ProductID:      &productID,
			VendorID:       item.VendorID,
			Name:           name,
			Quantity:       item.Quantity,
			UnitPriceCents: price,
			TotalCents:     item.Quantity.Mul(decimal.NewFromInt(price)).Round(0).IntPart(),
			CreatedAt:      now,
		})
	}
	return lines
}
