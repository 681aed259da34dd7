package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/api/responses"
	"github.com/construpro/construpro-backend/api/validators"
	productsvc "github.com/construpro/construpro-backend/internal/products"
	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
	"github.com/construpro/construpro-backend/pkg/types"
)

// ProductGet returns one catalog product with live availability.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		detail, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductDetailResponse(detail))
	}
}

// VendorCatalog lists the authenticated vendor's products, active and not.
func VendorCatalog(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := authedVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListVendorCatalog(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, len(records))
		for i, record := range records {
			items[i] = newProductResponse(record)
		}
		responses.WriteSuccess(w, items)
	}
}

type saveProductRequest struct {
	ID              *uuid.UUID      `json:"id"`
	Name            string          `json:"name" validate:"required,min=1,max=255"`
	Description     *string         `json:"description"`
	Unit            string          `json:"unit" validate:"required"`
	QuantityControl string          `json:"quantity_control" validate:"required"`
	ConversionValue decimal.Decimal `json:"conversion_value"`
	PriceCents      int64           `json:"price_cents" validate:"required,gt=0"`
	PromoPriceCents *int64          `json:"promo_price_cents"`
	Images          json.RawMessage `json:"images"`
	AvailableQty    *int            `json:"available_qty"`
}

// VendorProductSave creates or updates a vendor catalog product.
func VendorProductSave(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := authedVendor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload saveProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		control, err := enums.ParseQuantityControl(payload.QuantityControl)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity control"))
			return
		}

		record, err := svc.SaveProduct(r.Context(), productsvc.SaveProductInput{
			ID:              payload.ID,
			VendorID:        vendorID,
			Name:            payload.Name,
			Description:     payload.Description,
			Unit:            payload.Unit,
			QuantityControl: control,
			ConversionValue: payload.ConversionValue,
			PriceCents:      payload.PriceCents,
			PromoPriceCents: payload.PromoPriceCents,
			RawImages:       payload.Images,
			AvailableQty:    payload.AvailableQty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(*record))
	}
}

type productResponse struct {
	ID              uuid.UUID       `json:"id"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description,omitempty"`
	Unit            string          `json:"unit"`
	QuantityControl string          `json:"quantity_control"`
	ConversionValue decimal.Decimal `json:"conversion_value"`
	PriceCents      int64           `json:"price_cents"`
	PromoPriceCents *int64          `json:"promo_price_cents,omitempty"`
	Images          types.ImageList `json:"images"`
	IsActive        bool            `json:"is_active"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type productDetailResponse struct {
	productResponse
	EffectivePriceCents int64    `json:"effective_price_cents"`
	AvailableQty        int      `json:"available_qty"`
	ImageWarnings       []string `json:"image_warnings,omitempty"`
}

func newProductResponse(record models.Product) productResponse {
	return productResponse{
		ID:              record.ID,
		VendorID:        record.VendorID,
		Name:            record.Name,
		Description:     record.Description,
		Unit:            record.Unit,
		QuantityControl: string(record.QuantityControl),
		ConversionValue: record.ConversionValue,
		PriceCents:      record.PriceCents,
		PromoPriceCents: record.PromoPriceCents,
		Images:          record.Images,
		IsActive:        record.IsActive,
		UpdatedAt:       record.UpdatedAt,
	}
}

func newProductDetailResponse(detail *productsvc.ProductDetail) *productDetailResponse {
	if detail == nil {
		return nil
	}
	return &productDetailResponse{
		productResponse:     newProductResponse(detail.Product),
		EffectivePriceCents: detail.EffectivePriceCents,
		AvailableQty:        detail.AvailableQty,
		ImageWarnings:       detail.ImageWarnings,
	}
}
