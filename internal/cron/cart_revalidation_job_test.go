package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	"github.com/construpro/construpro-backend/pkg/logger"
)

type fakeCartStore struct {
	carts          []models.CartRecord
	deletedItems   []uuid.UUID
	clearedCoupons []uuid.UUID
	warnings       []models.CartWarning
	validated      []uuid.UUID
}

func (f *fakeCartStore) ListActiveCarts(ctx context.Context, limit int) ([]models.CartRecord, error) {
	return f.carts, nil
}

func (f *fakeCartStore) DeleteItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	f.deletedItems = append(f.deletedItems, itemIDs...)
	return nil
}

func (f *fakeCartStore) ClearCoupon(ctx context.Context, cartID uuid.UUID) error {
	f.clearedCoupons = append(f.clearedCoupons, cartID)
	return nil
}

func (f *fakeCartStore) AddWarnings(ctx context.Context, warnings []models.CartWarning) error {
	f.warnings = append(f.warnings, warnings...)
	return nil
}

func (f *fakeCartStore) MarkValidated(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	f.validated = append(f.validated, cartID)
	return nil
}

type fakeStockCatalog struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeStockCatalog) FindManyWithInventory(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return f.products, nil
}

func inventoried(name string, available int) models.Product {
	return models.Product{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: 1000,
		Inventory:  &models.InventoryItem{AvailableQty: available},
	}
}

func newRevalidationJob(t *testing.T, store *fakeCartStore, catalog *fakeStockCatalog) Job {
	t.Helper()
	job, err := NewCartRevalidationJob(CartRevalidationJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Carts:    store,
		Products: catalog,
	})
	if err != nil {
		t.Fatalf("NewCartRevalidationJob: %v", err)
	}
	return job
}

func TestCartRevalidationRemovesSoldOutAndWarnsLimited(t *testing.T) {
	soldOut := inventoried("Areia", 0)
	limited := inventoried("Brita", 2)
	catalog := &fakeStockCatalog{products: map[uuid.UUID]models.Product{
		soldOut.ID: soldOut,
		limited.ID: limited,
	}}

	coupon := "OBRA10"
	soldOutItem := models.CartItem{ID: uuid.New(), ProductID: soldOut.ID, Quantity: decimal.NewFromInt(1)}
	limitedItem := models.CartItem{ID: uuid.New(), ProductID: limited.ID, Quantity: decimal.NewFromInt(5)}
	store := &fakeCartStore{carts: []models.CartRecord{{
		ID:         uuid.New(),
		CouponCode: &coupon,
		Items:      []models.CartItem{soldOutItem, limitedItem},
	}}}

	job := newRevalidationJob(t, store, catalog)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.deletedItems) != 1 || store.deletedItems[0] != soldOutItem.ID {
		t.Fatalf("sold-out item must be removed, got %v", store.deletedItems)
	}
	if len(store.clearedCoupons) != 1 {
		t.Fatalf("removal must invalidate the coupon, got %v", store.clearedCoupons)
	}

	byType := map[enums.CartWarningType]int{}
	for _, warning := range store.warnings {
		byType[warning.Type]++
	}
	if byType[enums.CartWarningTypeOutOfStockRemoved] != 1 {
		t.Fatalf("expected removal warning, got %v", byType)
	}
	if byType[enums.CartWarningTypeLimitedStock] != 1 {
		t.Fatalf("expected limited stock warning, got %v", byType)
	}
	if byType[enums.CartWarningTypeCouponRemoved] != 1 {
		t.Fatalf("expected coupon removal warning, got %v", byType)
	}
	if len(store.validated) != 1 {
		t.Fatalf("cart must be marked validated, got %v", store.validated)
	}
}

func TestCartRevalidationLimitedStockIsWarnOnly(t *testing.T) {
	limited := inventoried("Tijolo", 3)
	catalog := &fakeStockCatalog{products: map[uuid.UUID]models.Product{limited.ID: limited}}

	item := models.CartItem{ID: uuid.New(), ProductID: limited.ID, Quantity: decimal.NewFromInt(10)}
	store := &fakeCartStore{carts: []models.CartRecord{{
		ID:    uuid.New(),
		Items: []models.CartItem{item},
	}}}

	job := newRevalidationJob(t, store, catalog)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.deletedItems) != 0 {
		t.Fatalf("limited stock must not remove items, got %v", store.deletedItems)
	}
	if len(store.clearedCoupons) != 0 {
		t.Fatal("warn-only pass must not touch the coupon")
	}
	if len(store.warnings) != 1 || store.warnings[0].Type != enums.CartWarningTypeLimitedStock {
		t.Fatalf("expected a single limited stock warning, got %+v", store.warnings)
	}
}

func TestCartRevalidationEmptyCartJustMarksValidated(t *testing.T) {
	store := &fakeCartStore{carts: []models.CartRecord{{ID: uuid.New()}}}
	job := newRevalidationJob(t, store, &fakeStockCatalog{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.validated) != 1 {
		t.Fatalf("empty cart must still be marked validated, got %v", store.validated)
	}
	if len(store.warnings) != 0 {
		t.Fatalf("empty cart must produce no warnings, got %+v", store.warnings)
	}
}
