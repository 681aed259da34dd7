package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/construpro/construpro-backend/api/responses"
	"github.com/construpro/construpro-backend/api/validators"
	pointsvc "github.com/construpro/construpro-backend/internal/points"
	"github.com/construpro/construpro-backend/pkg/logger"
)

// PointsNewToken mints a fresh submission token. The client must fetch a new
// one for every submission attempt.
func PointsNewToken(svc pointsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := authedUser(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"token": svc.NewToken()})
	}
}

type submitPointsRequest struct {
	Token   string     `json:"token" validate:"required"`
	Points  int64      `json:"points" validate:"required"`
	Reason  string     `json:"reason" validate:"required,min=1,max=255"`
	OrderID *uuid.UUID `json:"order_id"`
}

// PointsSubmit forwards one points adjustment to the points function with
// the token-based duplicate guard in front of it.
func PointsSubmit(svc pointsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitPointsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), userID, pointsvc.SubmitInput{
			Token:   payload.Token,
			Points:  payload.Points,
			Reason:  payload.Reason,
			OrderID: payload.OrderID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
