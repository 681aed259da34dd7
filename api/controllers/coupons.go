package controllers

import (
	"net/http"

	"github.com/construpro/construpro-backend/api/responses"
	"github.com/construpro/construpro-backend/api/validators"
	couponsvc "github.com/construpro/construpro-backend/internal/coupons"
	"github.com/construpro/construpro-backend/pkg/logger"
)

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

// CouponApply validates the code against the coupon function and stores it
// on the active cart.
func CouponApply(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ApplyCoupon(r.Context(), userID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CouponRemove drops the applied coupon; removing a coupon that is not there
// succeeds.
func CouponRemove(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveCoupon(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
