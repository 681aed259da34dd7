package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/construpro/construpro-backend/api/middleware"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

// authedUser extracts the authenticated buyer id seeded by the auth
// middleware.
func authedUser(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserUUIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return id, nil
}

// authedVendor extracts the vendor id for vendor-gated routes.
func authedVendor(r *http.Request) (uuid.UUID, error) {
	raw := middleware.VendorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor account required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid vendor id")
	}
	return id, nil
}
