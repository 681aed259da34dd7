package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/api/responses"
	"github.com/construpro/construpro-backend/api/validators"
	cartsvc "github.com/construpro/construpro-backend/internal/cart"
	"github.com/construpro/construpro-backend/pkg/db/models"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
	"github.com/construpro/construpro-backend/pkg/logger"
)

// CartGet returns the buyer's active cart, creating nothing.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

type addCartItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
}

// CartAddItem adds a product to the active cart or merges quantities when the
// product is already present.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), userID, cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(record))
	}
}

type updateQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
}

// CartUpdateQuantity replaces one line item's quantity.
func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateQuantity(r.Context(), userID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartRemoveItem deletes one line item from the active cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RemoveItems(r.Context(), userID, []uuid.UUID{itemID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

type adjustItemsRequest struct {
	Adjustments []adjustItemPayload `json:"adjustments" validate:"required,min=1,dive"`
}

type adjustItemPayload struct {
	ItemID      uuid.UUID       `json:"item_id" validate:"required"`
	NewQuantity decimal.Decimal `json:"new_quantity" validate:"required"`
}

// CartAdjustItems caps line items to the quantities the buyer accepted after
// a stock warning.
func CartAdjustItems(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adjustments := make([]cartsvc.ItemAdjustment, len(payload.Adjustments))
		for i, adj := range payload.Adjustments {
			adjustments[i] = cartsvc.ItemAdjustment{
				ItemID:      adj.ItemID,
				NewQuantity: adj.NewQuantity,
			}
		}

		record, err := svc.AdjustItems(r.Context(), userID, adjustments)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartClear abandons the active cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "itemID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return id, nil
}

type cartResponse struct {
	ID                  uuid.UUID             `json:"id"`
	UserID              uuid.UUID             `json:"user_id"`
	Status              string                `json:"status"`
	CouponCode          *string               `json:"coupon_code,omitempty"`
	CouponDiscountCents *int64                `json:"coupon_discount_cents,omitempty"`
	LastValidatedAt     *time.Time            `json:"last_validated_at,omitempty"`
	Items               []cartItemResponse    `json:"items"`
	Warnings            []cartWarningResponse `json:"warnings,omitempty"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

type cartItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	PriceAtAddCents int64           `json:"price_at_add_cents"`
	Unit            string          `json:"unit"`
	QuantityControl string          `json:"quantity_control"`
	ConversionValue decimal.Decimal `json:"conversion_value"`
	Status          string          `json:"status"`
}

type cartWarningResponse struct {
	ItemID    *uuid.UUID `json:"item_id,omitempty"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

func newCartResponse(record *models.CartRecord) *cartResponse {
	if record == nil {
		return nil
	}

	items := make([]cartItemResponse, len(record.Items))
	for i, item := range record.Items {
		items[i] = cartItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			VendorID:        item.VendorID,
			Quantity:        item.Quantity,
			PriceAtAddCents: item.PriceAtAddCents,
			Unit:            item.Unit,
			QuantityControl: string(item.QuantityControl),
			ConversionValue: item.ConversionValue,
			Status:          string(item.Status),
		}
	}

	var warnings []cartWarningResponse
	for _, warning := range record.Warnings {
		warnings = append(warnings, cartWarningResponse{
			ItemID:    warning.ItemID,
			ProductID: warning.ProductID,
			Type:      string(warning.Type),
			Message:   warning.Message,
			CreatedAt: warning.CreatedAt,
		})
	}

	return &cartResponse{
		ID:                  record.ID,
		UserID:              record.UserID,
		Status:              string(record.Status),
		CouponCode:          record.CouponCode,
		CouponDiscountCents: record.CouponDiscountCents,
		LastValidatedAt:     record.LastValidatedAt,
		Items:               items,
		Warnings:            warnings,
		UpdatedAt:           record.UpdatedAt,
	}
}
