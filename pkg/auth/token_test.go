package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/construpro/construpro-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "construpro-auth"}
}

func TestMintAndParseAccessToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()
	vendorID := uuid.New()

	signed, err := MintAccessToken(cfg, time.Now(), time.Hour, AccessTokenClaims{
		UserID:   userID,
		VendorID: &vendorID,
		Role:     "vendor",
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
	if claims.VendorID == nil || *claims.VendorID != vendorID {
		t.Fatalf("vendor id mismatch: %v", claims.VendorID)
	}
	if claims.Role != "vendor" {
		t.Fatalf("role mismatch: %q", claims.Role)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	t.Parallel()

	signed, err := MintAccessToken(testJWTConfig(), time.Now(), time.Hour, AccessTokenClaims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	other := config.JWTConfig{Secret: "different-secret", Issuer: "construpro-auth"}
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Hour, AccessTokenClaims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseAccessTokenWrongIssuer(t *testing.T) {
	t.Parallel()

	minting := config.JWTConfig{Secret: "test-secret", Issuer: "someone-else"}
	signed, err := MintAccessToken(minting, time.Now(), time.Hour, AccessTokenClaims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	if _, err := ParseAccessToken(testJWTConfig(), signed); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestMintAccessTokenRequiresUserID(t *testing.T) {
	t.Parallel()

	if _, err := MintAccessToken(testJWTConfig(), time.Now(), time.Hour, AccessTokenClaims{}); err == nil {
		t.Fatal("expected error without user id")
	}
}
