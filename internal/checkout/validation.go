package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/logger"
)

type inventoryLoader interface {
	FindManyWithInventory(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// InvalidItem is a line whose product has no stock left (or could not be
// checked at all). These are removal candidates. AvailableStock is always
// zero here: an unresolvable product reads as zero stock too.
type InvalidItem struct {
	ItemID         uuid.UUID `json:"item_id"`
	ProductID      uuid.UUID `json:"product_id"`
	AvailableStock int       `json:"available_stock"`
	Reason         string    `json:"reason"`
}

// AdjustedItem is a line whose requested quantity exceeds what remains but
// some stock is still available.
type AdjustedItem struct {
	ItemID      uuid.UUID       `json:"item_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
}

// StockValidationResult is recomputed on demand and never persisted. An item
// appears in at most one list; adjusted items alone do not block checkout.
type StockValidationResult struct {
	IsValid       bool           `json:"is_valid"`
	InvalidItems  []InvalidItem  `json:"invalid_items"`
	AdjustedItems []AdjustedItem `json:"adjusted_items"`
}

// ValidateCartStock classifies each line against live availability without
// touching inventory. Anything that cannot be resolved reads as zero stock:
// blocking a sale beats overselling.
func ValidateCartStock(ctx context.Context, loader inventoryLoader, logg *logger.Logger, items []models.CartItem) StockValidationResult {
	result := StockValidationResult{IsValid: true}
	if len(items) == 0 {
		return result
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != uuid.Nil {
			ids = append(ids, item.ProductID)
		}
	}

	products, err := loader.FindManyWithInventory(ctx, ids)
	if err != nil {
		if logg != nil {
			logg.Error(ctx, "stock validation batch load failed, failing closed", err)
		}
		products = nil
	}

	for _, item := range items {
		if item.ProductID == uuid.Nil {
			result.InvalidItems = append(result.InvalidItems, InvalidItem{
				ItemID: item.ID,
				Reason: "item has no resolvable product reference",
			})
			continue
		}

		product, ok := products[item.ProductID]
		if !ok {
			result.InvalidItems = append(result.InvalidItems, InvalidItem{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Reason:    "product availability could not be determined",
			})
			continue
		}

		available := 0
		if product.Inventory != nil {
			available = product.Inventory.AvailableQty
		}
		availableDec := decimal.NewFromInt(int64(available))

		switch {
		case available == 0:
			result.InvalidItems = append(result.InvalidItems, InvalidItem{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Reason:    fmt.Sprintf("%s esgotado", product.Name),
			})
		case availableDec.LessThan(item.Quantity):
			result.AdjustedItems = append(result.AdjustedItems, AdjustedItem{
				ItemID:      item.ID,
				ProductID:   item.ProductID,
				OldQuantity: item.Quantity,
				NewQuantity: availableDec,
			})
		}
	}

	result.IsValid = len(result.InvalidItems) == 0
	return result
}
