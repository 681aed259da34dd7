package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/construpro/construpro-backend/internal/checkout"
	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	"github.com/construpro/construpro-backend/pkg/logger"
)

const defaultRevalidationBatch = 100

type cartRevalidationStore interface {
	ListActiveCarts(ctx context.Context, limit int) ([]models.CartRecord, error)
	DeleteItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error
	ClearCoupon(ctx context.Context, cartID uuid.UUID) error
	AddWarnings(ctx context.Context, warnings []models.CartWarning) error
	MarkValidated(ctx context.Context, cartID uuid.UUID, at time.Time) error
}

type revalidationInventoryLoader interface {
	FindManyWithInventory(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// CartRevalidationJobParams configure the cart revalidation job.
type CartRevalidationJobParams struct {
	Logger   *logger.Logger
	Carts    cartRevalidationStore
	Products revalidationInventoryLoader
	Batch    int
}

// NewCartRevalidationJob builds the job that keeps active carts honest
// against live stock. Sold-out lines are removed outright; lines that merely
// exceed remaining stock only get a warning, the buyer decides whether to
// reduce them.
func NewCartRevalidationJob(params CartRevalidationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultRevalidationBatch
	}
	return &cartRevalidationJob{
		logg:     params.Logger,
		carts:    params.Carts,
		products: params.Products,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type cartRevalidationJob struct {
	logg     *logger.Logger
	carts    cartRevalidationStore
	products revalidationInventoryLoader
	batch    int
	now      func() time.Time
}

func (j *cartRevalidationJob) Name() string { return "cart-revalidation" }

func (j *cartRevalidationJob) Run(ctx context.Context) error {
	carts, err := j.carts.ListActiveCarts(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list active carts: %w", err)
	}

	var errs error
	for _, cart := range carts {
		if err := j.revalidate(ctx, cart); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cart %s: %w", cart.ID, err))
		}
	}
	return errs
}

func (j *cartRevalidationJob) revalidate(ctx context.Context, cart models.CartRecord) error {
	if len(cart.Items) == 0 {
		return j.carts.MarkValidated(ctx, cart.ID, j.now())
	}
	logCtx := j.logg.WithCartID(ctx, cart.ID.String())

	result := checkout.ValidateCartStock(ctx, j.products, j.logg, cart.Items)

	var warnings []models.CartWarning
	if len(result.InvalidItems) > 0 {
		removed := make([]uuid.UUID, 0, len(result.InvalidItems))
		for _, invalid := range result.InvalidItems {
			removed = append(removed, invalid.ItemID)
			itemID := invalid.ItemID
			warning := models.CartWarning{
				CartID:  cart.ID,
				ItemID:  &itemID,
				Type:    enums.CartWarningTypeOutOfStockRemoved,
				Message: invalid.Reason,
			}
			if invalid.ProductID != uuid.Nil {
				productID := invalid.ProductID
				warning.ProductID = &productID
			}
			warnings = append(warnings, warning)
		}
		if err := j.carts.DeleteItems(ctx, cart.ID, removed); err != nil {
			return fmt.Errorf("remove sold-out items: %w", err)
		}
		j.logg.Info(j.logg.WithField(logCtx, "removed_items", len(removed)), "removed sold-out items from active cart")

		// Removal is a cart mutation, so an applied coupon no longer matches
		// what it was validated against.
		if cart.CouponCode != nil && *cart.CouponCode != "" {
			if err := j.carts.ClearCoupon(ctx, cart.ID); err != nil {
				return fmt.Errorf("clear coupon: %w", err)
			}
			warnings = append(warnings, models.CartWarning{
				CartID:  cart.ID,
				Type:    enums.CartWarningTypeCouponRemoved,
				Message: fmt.Sprintf("Cupom %s removido: o carrinho foi alterado, aplique novamente", *cart.CouponCode),
			})
		}
	}

	for _, adjusted := range result.AdjustedItems {
		itemID := adjusted.ItemID
		productID := adjusted.ProductID
		warnings = append(warnings, models.CartWarning{
			CartID:    cart.ID,
			ItemID:    &itemID,
			ProductID: &productID,
			Type:      enums.CartWarningTypeLimitedStock,
			Message:   fmt.Sprintf("Apenas %s disponíveis de %s solicitados", adjusted.NewQuantity, adjusted.OldQuantity),
		})
	}

	if err := j.carts.AddWarnings(ctx, warnings); err != nil {
		return fmt.Errorf("record warnings: %w", err)
	}
	return j.carts.MarkValidated(ctx, cart.ID, j.now())
}
