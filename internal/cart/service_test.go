package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	product "github.com/construpro/construpro-backend/internal/products"
	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
)

type fakeProductLoader struct {
	products map[uuid.UUID]*product.ProductDetail
}

func (f *fakeProductLoader) GetProduct(ctx context.Context, id uuid.UUID) (*product.ProductDetail, error) {
	detail, ok := f.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return detail, nil
}

func newCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.CartRecord{}, &models.CartItem{}, &models.CartWarning{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(loader *fakeProductLoader, control enums.QuantityControl, conversion decimal.Decimal, priceCents int64) uuid.UUID {
	id := uuid.New()
	loader.products[id] = &product.ProductDetail{
		Product: models.Product{
			ID:              id,
			VendorID:        uuid.New(),
			Name:            "Produto",
			Unit:            "unidade",
			QuantityControl: control,
			ConversionValue: conversion,
			PriceCents:      priceCents,
			IsActive:        true,
		},
		EffectivePriceCents: priceCents,
	}
	return id
}

func newCartTestService(t *testing.T) (Service, CartRepository, *fakeProductLoader) {
	t.Helper()
	db := newCartTestDB(t)
	repo := NewRepository(db)
	loader := &fakeProductLoader{products: map[uuid.UUID]*product.ProductDetail{}}
	svc, err := NewService(repo, loader, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, loader
}

func TestAddItemCreatesLineWithPriceSnapshot(t *testing.T) {
	svc, _, loader := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 4990)

	cart, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(3)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(cart.Items))
	}
	item := cart.Items[0]
	if item.PriceAtAddCents != 4990 {
		t.Errorf("price snapshot = %d, want 4990", item.PriceAtAddCents)
	}
	if !item.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("quantity = %s, want 3", item.Quantity)
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	svc, _, loader := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 1000)

	if _, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(3)})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want merged single line", len(cart.Items))
	}
	if !cart.Items[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("quantity = %s, want 5", cart.Items[0].Quantity)
	}
}

func TestAddItemEnforcesPackageMultiples(t *testing.T) {
	svc, _, loader := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	// Sold in packages of 2.5 m2.
	productID := seedProduct(loader, enums.QuantityControlMultiple, decimal.NewFromFloat(2.5), 8900)

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(3)})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Errorf("non-multiple quantity should fail validation, got %v", err)
	}

	cart, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatalf("multiple quantity should pass: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(cart.Items))
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, loader := newCartTestService(t)
	userID := uuid.New()
	productID := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 1000)

	_, err := svc.AddItem(context.Background(), userID, AddItemInput{ProductID: productID, Quantity: decimal.Zero})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Errorf("zero quantity should fail validation, got %v", err)
	}
}

func TestMutationsInvalidateAppliedCoupon(t *testing.T) {
	svc, repo, loader := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 1000)

	cart, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := repo.SetCoupon(ctx, cart.ID, "OBRA10", 500); err != nil {
		t.Fatalf("SetCoupon: %v", err)
	}

	cart, err = svc.UpdateQuantity(ctx, userID, cart.Items[0].ID, decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if cart.CouponCode != nil {
		t.Errorf("coupon must be invalidated on quantity change, still %q", *cart.CouponCode)
	}

	foundWarning := false
	for _, w := range cart.Warnings {
		if w.Type == enums.CartWarningTypeCouponRemoved {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Errorf("expected coupon_removed warning, got %+v", cart.Warnings)
	}
}

func TestRemoveItemsInvalidatesCoupon(t *testing.T) {
	svc, repo, loader := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	first := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 1000)
	second := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 2000)

	if _, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: first, Quantity: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("add first: %v", err)
	}
	cart, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: second, Quantity: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if err := repo.SetCoupon(ctx, cart.ID, "OBRA10", 500); err != nil {
		t.Fatalf("SetCoupon: %v", err)
	}

	cart, err = svc.RemoveItems(ctx, userID, []uuid.UUID{cart.Items[0].ID})
	if err != nil {
		t.Fatalf("RemoveItems: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Errorf("items = %d, want 1", len(cart.Items))
	}
	if cart.CouponCode != nil {
		t.Errorf("coupon must be invalidated on removal")
	}
}

func TestAdjustItemsCapsQuantities(t *testing.T) {
	svc, _, loader := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 1000)

	cart, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cart, err = svc.AdjustItems(ctx, userID, []ItemAdjustment{
		{ItemID: cart.Items[0].ID, NewQuantity: decimal.NewFromInt(4)},
	})
	if err != nil {
		t.Fatalf("AdjustItems: %v", err)
	}
	if !cart.Items[0].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("quantity = %s, want capped 4", cart.Items[0].Quantity)
	}
}

func TestClearCartIsIdempotent(t *testing.T) {
	svc, _, loader := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := seedProduct(loader, enums.QuantityControlFree, decimal.NewFromInt(1), 1000)

	if _, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: productID, Quantity: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.ClearCart(ctx, userID); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := svc.ClearCart(ctx, userID); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	cart, err := svc.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("items = %d, want 0", len(cart.Items))
	}
}
