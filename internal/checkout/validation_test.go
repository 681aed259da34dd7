package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/logger"
)

type fakeInventoryLoader struct {
	products map[uuid.UUID]models.Product
	err      error
}

func (f *fakeInventoryLoader) FindManyWithInventory(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func stockedProduct(name string, available int) models.Product {
	return models.Product{
		ID:         uuid.New(),
		VendorID:   uuid.New(),
		Name:       name,
		PriceCents: 1000,
		IsActive:   true,
		Inventory:  &models.InventoryItem{AvailableQty: available},
	}
}

func cartLine(productID uuid.UUID, qty int64) models.CartItem {
	return models.CartItem{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  decimal.NewFromInt(qty),
	}
}

func TestValidateCartStockEmptyCart(t *testing.T) {
	t.Parallel()

	result := ValidateCartStock(context.Background(), &fakeInventoryLoader{}, nil, nil)
	if !result.IsValid {
		t.Fatal("empty cart must be valid")
	}
	if len(result.InvalidItems) != 0 || len(result.AdjustedItems) != 0 {
		t.Fatalf("empty cart must produce no findings: %+v", result)
	}
}

func TestValidateCartStockClassification(t *testing.T) {
	t.Parallel()

	inStock := stockedProduct("Cimento", 10)
	soldOut := stockedProduct("Areia", 0)
	limited := stockedProduct("Brita", 3)
	loader := &fakeInventoryLoader{products: map[uuid.UUID]models.Product{
		inStock.ID: inStock,
		soldOut.ID: soldOut,
		limited.ID: limited,
	}}

	items := []models.CartItem{
		cartLine(inStock.ID, 2),
		cartLine(soldOut.ID, 1),
		cartLine(limited.ID, 5),
	}
	result := ValidateCartStock(context.Background(), loader, nil, items)

	if result.IsValid {
		t.Fatal("sold-out line must invalidate the cart")
	}
	if len(result.InvalidItems) != 1 {
		t.Fatalf("expected 1 invalid item, got %d", len(result.InvalidItems))
	}
	if !strings.Contains(result.InvalidItems[0].Reason, "esgotado") {
		t.Fatalf("unexpected reason: %q", result.InvalidItems[0].Reason)
	}
	if result.InvalidItems[0].AvailableStock != 0 {
		t.Fatalf("sold-out line must report zero available stock, got %d", result.InvalidItems[0].AvailableStock)
	}
	if len(result.AdjustedItems) != 1 {
		t.Fatalf("expected 1 adjusted item, got %d", len(result.AdjustedItems))
	}
	adjusted := result.AdjustedItems[0]
	if !adjusted.NewQuantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("adjusted quantity must cap at availability, got %s", adjusted.NewQuantity)
	}
}

func TestValidateCartStockAdjustmentsAloneDoNotInvalidate(t *testing.T) {
	t.Parallel()

	limited := stockedProduct("Tijolo", 4)
	loader := &fakeInventoryLoader{products: map[uuid.UUID]models.Product{limited.ID: limited}}

	result := ValidateCartStock(context.Background(), loader, nil, []models.CartItem{cartLine(limited.ID, 9)})
	if !result.IsValid {
		t.Fatal("adjusted-only cart must stay valid")
	}
	if len(result.AdjustedItems) != 1 {
		t.Fatalf("expected adjustment, got %+v", result)
	}
}

func TestValidateCartStockFailsClosedOnLoadError(t *testing.T) {
	t.Parallel()

	loader := &fakeInventoryLoader{err: errors.New("db down")}
	logg := logger.New(logger.Options{ServiceName: "test"})

	result := ValidateCartStock(context.Background(), loader, logg, []models.CartItem{cartLine(uuid.New(), 1)})
	if result.IsValid {
		t.Fatal("load failure must fail closed")
	}
	if len(result.InvalidItems) != 1 {
		t.Fatalf("expected every line invalid, got %+v", result)
	}
}

func TestValidateCartStockUnresolvableReferences(t *testing.T) {
	t.Parallel()

	loader := &fakeInventoryLoader{products: map[uuid.UUID]models.Product{}}

	items := []models.CartItem{
		{ID: uuid.New(), Quantity: decimal.NewFromInt(1)}, // no product id
		cartLine(uuid.New(), 1),                           // unknown product
	}
	result := ValidateCartStock(context.Background(), loader, nil, items)
	if result.IsValid {
		t.Fatal("unresolvable lines must invalidate the cart")
	}
	if len(result.InvalidItems) != 2 {
		t.Fatalf("expected 2 invalid items, got %+v", result.InvalidItems)
	}
}
