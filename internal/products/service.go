package product

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/types"
)

// ProductDetail is the read model served to cart and catalog consumers.
type ProductDetail struct {
	Product             models.Product
	EffectivePriceCents int64
	AvailableQty        int
	ImageWarnings       []string
}

// SaveProductInput carries a vendor catalog write. Images arrive as raw JSON
// because the legacy data ships several shapes for the same logical field.
type SaveProductInput struct {
	ID              *uuid.UUID
	VendorID        uuid.UUID
	Name            string
	Description     *string
	Unit            string
	QuantityControl enums.QuantityControl
	ConversionValue decimal.Decimal
	PriceCents      int64
	PromoPriceCents *int64
	RawImages       json.RawMessage
	AvailableQty    *int
}

// Service exposes catalog reads and vendor catalog writes.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	ListVendorCatalog(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error)
	SaveProduct(ctx context.Context, input SaveProductInput) (*models.Product, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds the product service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.repo.FindByIDWithInventory(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ProductDetail{
		Product:             *product,
		EffectivePriceCents: product.EffectivePriceCents(),
	}
	if product.Inventory != nil {
		detail.AvailableQty = product.Inventory.AvailableQty
	}
	return detail, nil
}

func (s *service) ListVendorCatalog(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error) {
	return s.repo.ListActiveByVendor(ctx, vendorID)
}

func (s *service) SaveProduct(ctx context.Context, input SaveProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if input.QuantityControl == enums.QuantityControlMultiple && input.ConversionValue.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package-controlled products need a positive conversion value")
	}

	parsed := types.NormalizeImageField(input.RawImages)
	if len(parsed.Warnings) > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"vendor_id": input.VendorID.String(),
			"warnings":  parsed.Warnings,
		})
		s.logg.Warn(logCtx, "product image field needed normalization")
	}

	conversion := input.ConversionValue
	if conversion.LessThanOrEqual(decimal.Zero) {
		conversion = decimal.NewFromInt(1)
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "unidade"
	}
	control := input.QuantityControl
	if !control.IsValid() {
		control = enums.QuantityControlFree
	}

	row := models.Product{
		VendorID:        input.VendorID,
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		Unit:            unit,
		QuantityControl: control,
		ConversionValue: conversion,
		PriceCents:      input.PriceCents,
		PromoPriceCents: input.PromoPriceCents,
		Images:          parsed.Images,
		IsActive:        true,
	}

	var saved *models.Product
	var err error
	if input.ID != nil {
		row.ID = *input.ID
		saved, err = s.repo.UpdateProduct(ctx, &row)
	} else {
		saved, err = s.repo.CreateProduct(ctx, &row)
	}
	if err != nil {
		return nil, err
	}

	if input.AvailableQty != nil {
		item := models.InventoryItem{
			ProductID:    saved.ID,
			AvailableQty: *input.AvailableQty,
		}
		if _, err := s.repo.UpsertInventory(ctx, &item); err != nil {
			return nil, err
		}
	}
	return saved, nil
}
