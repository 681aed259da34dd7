package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the typed JWT issued by the platform auth service.
// This backend only verifies these tokens; it never mints them for clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	VendorID *uuid.UUID `json:"vendor_id,omitempty"`
	Role     string     `json:"role,omitempty"`
	jwt.RegisteredClaims
}
