package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/construpro/construpro-backend/pkg/db/models"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

// InventoryReservationRequest asks to move qty units from available to
// reserved for one cart line.
type InventoryReservationRequest struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
}

// InventoryReservationResult reports the per-line outcome. A failed line
// carries a human-readable reason and leaves inventory untouched.
type InventoryReservationResult struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Reserved   bool
	Reason     string
}

// ReserveInventory processes the requests inside the caller's transaction.
// Requests are applied in order against the same snapshot, so two lines for
// one product compete for the same stock. The transaction boundary is the
// correctness gate: the caller aborts it if any required line failed.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReservationRequest) ([]InventoryReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation product id required")
		}
	}

	results := make([]InventoryReservationResult, 0, len(requests))
	for _, req := range requests {
		result := InventoryReservationResult{
			CartItemID: req.CartItemID,
			ProductID:  req.ProductID,
		}

		var item models.InventoryItem
		err := tx.WithContext(ctx).First(&item, "product_id = ?", req.ProductID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Reason = "no inventory record for product"
				results = append(results, result)
				continue
			}
			return nil, err
		}

		if item.AvailableQty < req.Qty {
			result.Reason = fmt.Sprintf("only %d available, %d requested", item.AvailableQty, req.Qty)
			results = append(results, result)
			continue
		}

		update := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("product_id = ? AND available_qty >= ?", req.ProductID, req.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty - ?", req.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty + ?", req.Qty),
			})
		if update.Error != nil {
			return nil, update.Error
		}
		if update.RowsAffected == 0 {
			// Lost the guard re-check; treat as insufficient stock.
			result.Reason = "stock changed during reservation"
			results = append(results, result)
			continue
		}

		result.Reserved = true
		results = append(results, result)
	}
	return results, nil
}
