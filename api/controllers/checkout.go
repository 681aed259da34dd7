package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construpro/construpro-backend/api/responses"
	"github.com/construpro/construpro-backend/api/validators"
	checkoutsvc "github.com/construpro/construpro-backend/internal/checkout"
	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/logger"
)

// CheckoutValidateStock runs the advisory stock pass over the active cart.
func CheckoutValidateStock(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ValidateStock(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CheckoutAutoFix applies the one-click remediation: out-of-stock lines are
// removed, over-stock lines are capped, and the updated cart comes back with
// the change report.
func CheckoutAutoFix(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AutoFix(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, autoFixResponse{
			RemovedItems:  result.RemovedItems,
			AdjustedItems: result.AdjustedItems,
			Cart:          newCartResponse(result.Cart),
		})
	}
}

type autoFixResponse struct {
	RemovedItems  []checkoutsvc.InvalidItem  `json:"removed_items"`
	AdjustedItems []checkoutsvc.AdjustedItem `json:"adjusted_items"`
	Cart          *cartResponse              `json:"cart"`
}

type checkoutRequest struct {
	Cep string `json:"cep" validate:"required"`
}

// CheckoutExecute places the order: stock, destination, restrictions and
// coupon are all re-checked server-side before the atomic reservation.
func CheckoutExecute(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), userID, checkoutsvc.ExecuteInput{Cep: payload.Cep})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type orderResponse struct {
	ID            uuid.UUID          `json:"id"`
	Status        string             `json:"status"`
	SubtotalCents int64              `json:"subtotal_cents"`
	DiscountCents int64              `json:"discount_cents"`
	TotalCents    int64              `json:"total_cents"`
	CouponCode    *string            `json:"coupon_code,omitempty"`
	ShippingCep   string             `json:"shipping_cep"`
	ShippingCity  string             `json:"shipping_city,omitempty"`
	ShippingState string             `json:"shipping_state,omitempty"`
	ShippingZone  *string            `json:"shipping_zone,omitempty"`
	LineItems     []lineItemResponse `json:"line_items"`
	CreatedAt     time.Time          `json:"created_at"`
}

type lineItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      *uuid.UUID      `json:"product_id,omitempty"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	TotalCents     int64           `json:"total_cents"`
}

func newOrderResponse(order *models.Order) *orderResponse {
	if order == nil {
		return nil
	}

	lineItems := make([]lineItemResponse, len(order.LineItems))
	for i, item := range order.LineItems {
		lineItems[i] = lineItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VendorID:       item.VendorID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		}
	}

	return &orderResponse{
		ID:            order.ID,
		Status:        string(order.Status),
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		TotalCents:    order.TotalCents,
		CouponCode:    order.CouponCode,
		ShippingCep:   order.ShippingCep,
		ShippingCity:  order.ShippingCity,
		ShippingState: order.ShippingState,
		ShippingZone:  order.ShippingZone,
		LineItems:     lineItems,
		CreatedAt:     order.CreatedAt,
	}
}
